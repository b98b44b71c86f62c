package biz

import (
	"fmt"

	"github.com/kart-io/reviewer-x/internal/model"
)

// systemPrompt 所有审查请求共用的 system 提示。
const systemPrompt = `You are an expert code reviewer with years of experience in software development, security, and best practices. Your goal is to provide constructive, actionable feedback.`

// ragSystemPrompt 检索增强审查使用的 system 提示。
const ragSystemPrompt = `You are an expert code reviewer with access to comprehensive coding guidelines.`

// zeroShotTemplate 零样本审查模板。%[1]s 为语言，%[2]s 为代码。
const zeroShotTemplate = `Analyze the following %[1]s code and provide a comprehensive review.

Code to review:
` + "```%[1]s\n%[2]s\n```" + `

Please provide your analysis in this exact JSON format:
{
    "issues": ["list of specific issues found"],
    "suggestions": ["list of actionable improvement suggestions"],
    "rating": "rating from: Excellent/Good/Fair/Poor",
    "reasoning": "brief explanation of your assessment"
}

Focus on: security vulnerabilities, performance issues, code quality, maintainability, and best practices.`

// fewShotTemplate 少样本审查模板，内置两个示例评审。
const fewShotTemplate = `You are an expert code reviewer. Here are examples of good code reviews:

Example 1:
Code: ` + "`def add(a, b): return a + b`" + `
Review: {"issues": [], "suggestions": ["Add type hints for parameters and return value", "Add docstring to document function purpose"], "rating": "Good", "reasoning": "Simple, correct function but lacks documentation and type safety"}

Example 2:
Code: ` + "`password = \"admin123\"`" + `
Review: {"issues": ["Hardcoded password is a security vulnerability", "Weak password that's easily guessable"], "suggestions": ["Use environment variables or secure credential storage", "Implement proper authentication system"], "rating": "Poor", "reasoning": "Critical security vulnerabilities present"}

Now review this %[1]s code:
` + "```%[1]s\n%[2]s\n```" + `

Provide your analysis in the same JSON format.`

// cotTemplate 思维链审查模板，引导模型按五个步骤分析后输出 JSON。
const cotTemplate = `Analyze this %[1]s code step by step:

Code to review:
` + "```%[1]s\n%[2]s\n```" + `

Let me think through this systematically:

1. **Syntax and Logic Check**: I'll examine for any syntax errors or logical issues
2. **Security Analysis**: I'll identify potential security vulnerabilities
3. **Performance Review**: I'll assess performance implications and bottlenecks
4. **Code Quality**: I'll evaluate readability, maintainability, and best practices
5. **Testing Considerations**: I'll consider testability and edge cases

Step-by-step analysis:
[Provide detailed reasoning for each step]

Final review in JSON format:
{
    "issues": ["list of issues found"],
    "suggestions": ["list of improvement suggestions"],
    "rating": "overall rating",
    "reasoning": "comprehensive reasoning based on step-by-step analysis"
}`

// ragTemplate 检索增强审查模板。%[1]s 为规范上下文，%[2]s 为语言，%[3]s 为代码。
const ragTemplate = `You are an expert code reviewer with access to comprehensive coding guidelines and best practices.

RELEVANT CODING GUIDELINES:
%[1]s

CODE TO REVIEW:
` + "```%[2]s\n%[3]s\n```" + `

Based on the coding guidelines above, provide a comprehensive code review following this exact JSON format:

{
    "issues": [
        {
            "type": "security|performance|style|maintainability|bug",
            "severity": "critical|high|medium|low",
            "description": "Detailed description of the issue",
            "line_reference": "Specific line or function if applicable",
            "guideline_reference": "Which guideline from the context this violates"
        }
    ],
    "suggestions": [
        {
            "type": "improvement|best_practice|optimization",
            "description": "Actionable improvement suggestion",
            "code_example": "Improved code example if applicable",
            "guideline_reference": "Which guideline supports this suggestion"
        }
    ],
    "rating": "Excellent|Good|Fair|Poor",
    "reasoning": "Detailed explanation of the rating based on the guidelines",
    "guidelines_used": [
        "List of specific guidelines referenced from the context"
    ],
    "rag_context_quality": "high|medium|low"
}

Focus on issues and improvements that are specifically supported by the provided guidelines.
If the code follows best practices mentioned in the guidelines, acknowledge this in your review.`

// BuildPrompt 按提示技术组装审查提示词。
func BuildPrompt(technique, language, code string) (string, error) {
	switch technique {
	case model.TechniqueZeroShot:
		return fmt.Sprintf(zeroShotTemplate, language, code), nil
	case model.TechniqueFewShot:
		return fmt.Sprintf(fewShotTemplate, language, code), nil
	case model.TechniqueCoT:
		return fmt.Sprintf(cotTemplate, language, code), nil
	default:
		return "", fmt.Errorf("未知的提示技术: %s", technique)
	}
}

// BuildRAGPrompt 组装带规范上下文的审查提示词。
func BuildRAGPrompt(guidelineContext, language, code string) string {
	return fmt.Sprintf(ragTemplate, guidelineContext, language, code)
}
