package core

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var tokenTypes = map[string]struct{}{
	"owner":                      {},
	"ethereum_erc721":            {},
	"ethereum_erc1155":           {},
	"ethereum_erc20":             {},
	"goerli_erc721":              {},
	"goerli_erc1155":             {},
	"goerli_erc20":               {},
	"polygon_erc721":             {},
	"polygon_erc1155":            {},
	"polygon_erc20":              {},
	"polygon_mumbai_erc721":      {},
	"polygon_mumbai_erc1155":     {},
	"polygon_mumbai_erc20":       {},
	"singular_kusama":            {},
	"intransferable_astar_psp34": {},
	"astar_psp34":                {},
	"astar_shiden_psp34":         {},
	"astar_rocstar_psp34":        {},
	"multiversx_devnet_esdt":     {},
	"multiversx_testnet_esdt":    {},
	"multiversx_esdt":            {},
}

// topLevelTypes are the registered IANA top-level media types.
var topLevelTypes = map[string]struct{}{
	"application": {},
	"audio":       {},
	"font":        {},
	"image":       {},
	"message":     {},
	"model":       {},
	"multipart":   {},
	"text":        {},
	"video":       {},
}

// IsValidMIME reports whether s names a known MIME type, or any
// well-formed type/subtype under a registered top-level type.
// Parameters such as "; charset=utf-8" are ignored.
func IsValidMIME(s string) bool {
	mediaType, _, err := mime.ParseMediaType(s)
	if err != nil {
		return false
	}
	if mimetype.Lookup(mediaType) != nil {
		return true
	}
	top, subtype, ok := strings.Cut(mediaType, "/")
	if !ok || subtype == "" || strings.Contains(subtype, "/") {
		return false
	}
	_, registered := topLevelTypes[top]
	return registered
}

// IsTokenType reports whether s is a supported token type.
func IsTokenType(s string) bool {
	_, ok := tokenTypes[s]
	return ok
}

// IsEthereumToken reports whether the token type lives on an EVM chain.
func IsEthereumToken(s string) bool {
	switch s {
	case "ethereum_erc721", "ethereum_erc1155", "ethereum_erc20",
		"goerli_erc721", "goerli_erc1155", "goerli_erc20",
		"polygon_erc721", "polygon_erc1155", "polygon_erc20",
		"polygon_mumbai_erc721", "polygon_mumbai_erc1155", "polygon_mumbai_erc20":
		return true
	}
	return false
}

// IsPSP34Token reports whether the token type is an ink! PSP34 token.
func IsPSP34Token(s string) bool {
	switch s {
	case "intransferable_astar_psp34", "astar_psp34", "astar_shiden_psp34", "astar_rocstar_psp34":
		return true
	}
	return false
}

// MIMEExtensions returns the file extensions registered for a MIME type,
// leading dot included, primary extension first.
func MIMEExtensions(s string) []string {
	mediaType, _, err := mime.ParseMediaType(s)
	if err != nil {
		return nil
	}
	m := mimetype.Lookup(mediaType)
	if m == nil {
		return nil
	}
	exts := []string{m.Extension()}
	if more, err := mime.ExtensionsByType(mediaType); err == nil {
		for _, e := range more {
			if e != exts[0] {
				exts = append(exts, e)
			}
		}
	}
	return exts
}
