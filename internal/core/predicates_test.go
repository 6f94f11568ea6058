package core

import "testing"

func TestIsValidMIME(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"application/pdf", true},
		{"image/png", true},
		{"image/jpeg", true},
		{"text/plain; charset=utf-8", true},
		{"text/markdown", true},
		{"application/yaml", true},
		{"model/gltf+json", true},
		{"font/woff2", true},
		{"Application/X-Custom", true},
		{"not/a-type", false},
		{"x-custom/thing", false},
		{"image/", false},
		{"pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsValidMIME(tt.input); got != tt.want {
				t.Errorf("IsValidMIME(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsTokenType(t *testing.T) {
	for _, valid := range []string{"owner", "ethereum_erc721", "astar_psp34", "multiversx_esdt"} {
		if !IsTokenType(valid) {
			t.Errorf("IsTokenType(%q) = false, want true", valid)
		}
	}
	for _, invalid := range []string{"", "OWNER", "bitcoin"} {
		if IsTokenType(invalid) {
			t.Errorf("IsTokenType(%q) = true, want false", invalid)
		}
	}
}

func TestTokenFamilies(t *testing.T) {
	if !IsEthereumToken("polygon_erc1155") || IsEthereumToken("astar_psp34") {
		t.Error("IsEthereumToken misclassified")
	}
	if !IsPSP34Token("astar_shiden_psp34") || IsPSP34Token("owner") {
		t.Error("IsPSP34Token misclassified")
	}
}

func TestMIMEExtensions(t *testing.T) {
	exts := MIMEExtensions("application/pdf")
	if len(exts) == 0 || exts[0] != ".pdf" {
		t.Errorf("MIMEExtensions(pdf) = %v, want .pdf first", exts)
	}
	if MIMEExtensions("not/a-type") != nil {
		t.Error("unknown type should have no extensions")
	}
}
