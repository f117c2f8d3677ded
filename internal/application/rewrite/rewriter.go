package rewrite

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Rule 書き換え対象のタグと属性のペア
// このテーブルに載っていない属性（style、srcset、script内のURLなど）は一切変更しない
type Rule struct {
	Tag  string
	Attr string
}

// DefaultRules プロキシ経由に書き換えるタグ・属性の静的テーブル
var DefaultRules = []Rule{
	{Tag: "link", Attr: "href"},
	{Tag: "script", Attr: "src"},
	{Tag: "img", Attr: "src"},
	{Tag: "iframe", Attr: "src"},
	{Tag: "a", Attr: "href"},
}

// アセット系タグはプリフェッチ対象（aはナビゲーションなので対象外）
var prefetchTags = map[string]bool{
	"link":   true,
	"script": true,
	"img":    true,
	"iframe": true,
}

// Rewriter HTML内の埋め込みリソースURLをプロキシ経由のパスに書き換える
type Rewriter struct {
	rules     map[string]string // tag -> attr
	fetchPath string            // 例: "/fetch"
}

// NewRewriter DefaultRulesを使用するRewriterを構築する
// fetchPath: 書き換え先エンドポイントのパス（例: "/fetch"）
func NewRewriter(fetchPath string) *Rewriter {
	rules := make(map[string]string, len(DefaultRules))
	for _, rule := range DefaultRules {
		rules[rule.Tag] = rule.Attr
	}
	return &Rewriter{
		rules:     rules,
		fetchPath: fetchPath,
	}
}

// Rewrite HTML文書内のリソースURLをfetchPath経由の絶対URLに書き換える
// 戻り値は書き換え後のHTML、プリフェッチ対象となった絶対URLのリスト、エラー
// パースは寛容に行い、失敗した場合のみエラーを返す（呼び出し元は元のHTMLで続行する）
func (rw *Rewriter) Rewrite(htmlText string, base *url.URL) (string, []string, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var assets []string
	rw.walk(doc, base, &assets)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), assets, nil
}

func (rw *Rewriter) walk(n *html.Node, base *url.URL, assets *[]string) {
	if n.Type == html.ElementNode {
		if attrName, ok := rw.rules[n.Data]; ok {
			for i, attr := range n.Attr {
				if attr.Key != attrName || attr.Namespace != "" {
					continue
				}
				rewritten, absolute, ok := rw.rewriteValue(attr.Val, base)
				if !ok {
					continue
				}
				n.Attr[i].Val = rewritten
				if prefetchTags[n.Data] {
					*assets = append(*assets, absolute)
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rw.walk(c, base, assets)
	}
}

// rewriteValue 単一の属性値を書き換える
// 戻り値は書き換え後の値、解決済み絶対URL、書き換えたかどうか
func (rw *Rewriter) rewriteValue(val string, base *url.URL) (string, string, bool) {
	if val == "" {
		return "", "", false
	}

	// 既に書き換え済みの値を再度書き換えると二重エンコードになる
	// "http(s)で始まるか" の判定だけではルート相対のfetchパスを守れないため明示的に除外する
	if strings.HasPrefix(val, rw.fetchPath+"?") {
		return "", "", false
	}

	ref, err := url.Parse(val)
	if err != nil {
		// パースできない属性値は触らない
		return "", "", false
	}

	// スキーム付きのURLは絶対URLなので変更しない（http/httpsに加えdata:、mailto:なども含む）
	if ref.Scheme != "" {
		return "", "", false
	}

	// 相対パス・//host形式・フラグメントのみ、いずれも標準のURL解決に従う
	absolute := base.ResolveReference(ref).String()
	rewritten := rw.fetchPath + "?url=" + url.QueryEscape(absolute)
	return rewritten, absolute, true
}
