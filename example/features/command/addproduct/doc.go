// Package addproduct implements the Add Product use case.
//
// Adding a product that was added before is a no-op, so the command can safely be repeated.
package addproduct
