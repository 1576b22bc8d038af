// Package text turns clipboard contents into something worth speaking.
package text
