// Package dataset enumerates skeleton collections and reads known-match
// lists.
//
// A collection is every *.swc blob under a store prefix. Skeleton ids are
// blob basenames without the extension, so "neurons/a/1234.swc" has id
// "1234". Ids must be unique within a collection.
package dataset
