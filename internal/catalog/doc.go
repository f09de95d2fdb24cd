// Package catalog holds imported content and the user's selection of it.
//
// Filters narrow the visible items by publish date, media type and play count.
// The selection survives restarts through the key-value store.
package catalog
