package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>テスト段落</p>",
			wantContains: []string{"<p>テスト段落</p>"},
		},
		{
			name:         "brタグが許可される",
			input:        "行1<br>行2",
			wantContains: []string{"<br>", "行1", "行2"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com">リンク</a>`,
			wantContains: []string{"<a", "href", "https://example.com", "リンク", "</a>"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>項目1</li><li>項目2</li></ul>",
			wantContains: []string{"<ul>", "<li>", "項目1", "項目2", "</li>", "</ul>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>引用テキスト</blockquote>",
			wantContains: []string{"<blockquote>引用テキスト</blockquote>"},
		},
		{
			name:         "preタグとcodeタグが許可される",
			input:        "<pre><code>func main() {}</code></pre>",
			wantContains: []string{"<pre>", "<code>", "func main() {}", "</code>", "</pre>"},
		},
		{
			name:         "strongタグとemタグが許可される",
			input:        "<strong>太字</strong>と<em>強調</em>",
			wantContains: []string{"<strong>太字</strong>", "<em>強調</em>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenTags は禁止タグが除去されることを検証する。
func TestSanitize_ForbiddenTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグが除去される",
			input:        `<p>テスト</p><script>alert('xss')</script><p>安全</p>`,
			wantAbsent:   []string{"<script", "</script>", "alert"},
			wantContains: []string{"テスト", "安全"},
		},
		{
			name:         "iframeタグが除去される",
			input:        `<p>テスト</p><iframe src="https://evil.com"></iframe>`,
			wantAbsent:   []string{"<iframe", "</iframe>", "evil.com"},
			wantContains: []string{"テスト"},
		},
		{
			name:         "styleタグが除去される",
			input:        `<p>テスト</p><style>body{display:none}</style>`,
			wantAbsent:   []string{"<style", "</style>", "display:none"},
			wantContains: []string{"テスト"},
		},
		{
			name:       "imgタグが除去される",
			input:      `<img src="https://example.com/image.png" alt="画像">`,
			wantAbsent: []string{"<img"},
		},
		{
			name:         "許可されていないタグ（div）が除去される",
			input:        `<div><p>テスト</p></div>`,
			wantAbsent:   []string{"<div", "</div>"},
			wantContains: []string{"<p>テスト</p>"},
		},
		{
			name:       "許可されていないタグ（form）が除去される",
			input:      `<form action="https://evil.com"><input type="text"></form>`,
			wantAbsent: []string{"<form", "</form>", "<input"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_OnEventAttributes はon*イベント属性が除去されることを検証する。
func TestSanitize_OnEventAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{
			name:       "onclickが除去される",
			input:      `<p onclick="alert('xss')">テスト</p>`,
			wantAbsent: []string{"onclick", "alert"},
		},
		{
			name:       "onmouseoverが除去される",
			input:      `<a href="https://example.com" onmouseover="alert('xss')">リンク</a>`,
			wantAbsent: []string{"onmouseover", "alert"},
		},
		{
			name:       "onfocusが除去される",
			input:      `<a href="https://example.com" onfocus="alert('xss')">リンク</a>`,
			wantAbsent: []string{"onfocus", "alert"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

// TestSanitize_AnchorAttributes はaタグにtarget="_blank"とrel="noopener noreferrer"が自動付与されることを検証する。
func TestSanitize_AnchorAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<a href="https://example.com" target="_self" rel="nofollow">リンク</a>`
	got := sanitizer.Sanitize(input)

	for _, want := range []string{`target="_blank"`, "noopener", "noreferrer", "リンク"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sanitize(%q) = %q, expected to contain %q", input, got, want)
		}
	}
	if strings.Contains(got, `target="_self"`) {
		t.Errorf("Sanitize(%q) = %q, should NOT contain target=\"_self\"", input, got)
	}
}

// TestSanitize_JavascriptURI はjavascriptスキームのリンクが無害化されることを検証する。
func TestSanitize_JavascriptURI(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<a href="javascript:alert('xss')">クリック</a>`
	got := sanitizer.Sanitize(input)

	if strings.Contains(strings.ToLower(got), "javascript:") {
		t.Errorf("Sanitize(%q) = %q, should NOT contain javascript:", input, got)
	}
}

// TestSanitize_EmptyInput は空文字列の入力を安全に処理できることを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.Sanitize("")
	if got != "" {
		t.Errorf("Sanitize(\"\") = %q, expected empty string", got)
	}
}

// TestSanitize_PlainText はプレーンテキストがそのまま通過することを検証する。
func TestSanitize_PlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := "これはプレーンテキストの投稿です。HTMLタグを含みません。"
	got := sanitizer.Sanitize(input)
	if got != input {
		t.Errorf("Sanitize(%q) = %q, expected unchanged", input, got)
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力（冪等性）を検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>テスト<strong>太字</strong></p><a href="https://example.com">リンク</a><script>bad()</script>`

	result1 := sanitizer.Sanitize(input)
	result2 := sanitizer.Sanitize(input)
	result3 := sanitizer.Sanitize(result1) // 二重サニタイズ

	if result1 != result2 {
		t.Errorf("冪等性違反: 1回目=%q, 2回目=%q", result1, result2)
	}
	if result1 != result3 {
		t.Errorf("二重サニタイズで結果が変わった: 1回目=%q, 二重=%q", result1, result3)
	}
}

// TestContentSanitizerInterface はContentSanitizerServiceインターフェースの適合を検証する。
func TestContentSanitizerInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
