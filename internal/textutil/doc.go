// Package textutil normalizes and sanitizes text that ends up in file names.
package textutil
