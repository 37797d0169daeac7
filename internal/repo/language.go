package repo

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Language is the closed set of language tags the pipeline can classify.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangGo         Language = "go"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangUnknown    Language = "unknown"
)

var extToLanguage = map[string]Language{
	".py":   LangPython,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTypeScript,
	".java": LangJava,
	".php":  LangPHP,
	".rb":   LangRuby,
	".go":   LangGo,
	".c":    LangC,
	".h":    LangC,
	".cpp":  LangCPP,
	".cc":   LangCPP,
	".hpp":  LangCPP,
	".cs":   LangCSharp,
}

// DetectLanguage classifies a file by extension, falling back to a content
// sniff (shebang line, php opening tag) when the extension is not recognized.
func DetectLanguage(path string, content []byte) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extToLanguage[ext]; ok {
		return lang
	}
	return sniffLanguage(content)
}

// sniffLanguage inspects the first line of the content for interpreter hints.
func sniffLanguage(content []byte) Language {
	firstLine := content
	if idx := bytes.IndexByte(content, '\n'); idx >= 0 {
		firstLine = content[:idx]
	}
	line := string(firstLine)

	switch {
	case strings.HasPrefix(line, "#!"):
		switch {
		case strings.Contains(line, "python"):
			return LangPython
		case strings.Contains(line, "node"):
			return LangJavaScript
		case strings.Contains(line, "ruby"):
			return LangRuby
		case strings.Contains(line, "php"):
			return LangPHP
		}
	case strings.HasPrefix(strings.TrimSpace(line), "<?php"):
		return LangPHP
	}
	return LangUnknown
}

// IsSourceExtension reports whether the extension belongs to a supported language.
func IsSourceExtension(path string) bool {
	_, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return ok
}
