// Package list enumerates the source objects of a concatenation run.
//
// Listing is marker-paginated: each page starts after the last key the
// previous page returned. Objects are filtered by key suffix and keep the
// store's listing order.
package list
