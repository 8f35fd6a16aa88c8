package prompt

import (
	"fmt"

	"github.com/bryanwahyu/automaton-review/internal/domain/analysis"
)

// SystemPrompt is the fixed instruction handed to the analysis agent on every
// call. Its wording is part of the service contract; do not edit casually.
const SystemPrompt = `You are a code analysis assistant with HTTP capabilities. You can: analyze code files from object storage; identify code quality issues, security vulnerabilities, and best practices; generate detailed analysis reports; make HTTP requests to external APIs for additional context. When analyzing code: focus on code quality, security, performance, and maintainability; identify potential bugs, security vulnerabilities, and anti-patterns; suggest improvements and best practices; provide clear, actionable recommendations; format the analysis in a structured, readable format. Always provide constructive feedback and explain the reasoning behind recommendations.`

// BuildFilePrompt wraps a fetched source file into the analysis prompt. The
// five numbered categories are part of the service contract as well.
func BuildFilePrompt(src *analysis.SourceObject) string {
	return fmt.Sprintf(`Analyze this %s code file: %s

File size: %d bytes

Code content:
`+"```"+`%s
%s
`+"```"+`

Please provide a comprehensive analysis including:
1. Code quality assessment
2. Security vulnerabilities
3. Performance considerations
4. Best practices recommendations
5. Specific improvements with code examples
`, src.FileType, src.Key, src.SizeBytes, src.FileType, src.Content)
}
