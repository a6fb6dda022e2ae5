package translate

import (
	"strings"

	"golang.org/x/text/language"
)

// Replacement is one terminology substitution.
type Replacement struct {
	From string
	To   string
}

// Glossary is an ordered list of substitutions. Order matters: an earlier
// entry can shadow a later one, and identity entries (From == To) are kept
// to document terms that must not be rewritten.
type Glossary []Replacement

// Apply performs every replacement in order.
func (g Glossary) Apply(s string) string {
	for _, r := range g {
		if r.From == "" {
			continue
		}
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}

// DefaultLineGlossary returns the product-name fixes applied to every
// translated line. Only Traditional Chinese has built-in entries.
func DefaultLineGlossary(target language.Tag) Glossary {
	if !isTraditionalChinese(target) {
		return nil
	}
	return Glossary{
		{From: "Deno 沙箱", To: "Deno Sandbox"},
		{From: "沙箱", To: "沙箱"},
		{From: "組織權杖", To: "組織 Token"},
		{From: "代幣", To: "Token"},
	}
}

// DefaultDocumentGlossary returns the proofreading fixes applied to a
// whole translated document. Only Traditional Chinese has built-in entries.
func DefaultDocumentGlossary(target language.Tag) Glossary {
	if !isTraditionalChinese(target) {
		return nil
	}
	return Glossary{
		{From: "開始使用", To: "開始使用"},
		{From: "儀表板", To: "主控台"},
		{From: "環境變數", To: "環境變數"},
		{From: "命令列", To: "命令列"},
		{From: "部署", To: "Deploy"},
		{From: "標誌", To: "旗標"},
	}
}

func isTraditionalChinese(t language.Tag) bool {
	base, _ := t.Base()
	script, _ := t.Script()
	return base.String() == "zh" && script.String() == "Hant"
}
