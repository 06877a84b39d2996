// Package textutil derives display titles from audio file names.
package textutil
