// Package dom renders components to HTML and answers read-only queries over
// the result, the way a user would find things on a page: by visible text, by
// accessible role, or by test id.
//
// Queries search the document body. Get* queries return exactly one element
// or a *QueryError wrapping ErrNotFound or ErrMultiple; Query* queries return
// nil when nothing matches.
package dom
