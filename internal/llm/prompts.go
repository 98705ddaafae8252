package llm

// Prompts contains the prompt templates sent to the model
var Prompts = struct {
	AnalyzeSystem  string
	AnalyzeUser    string
	GenerateSystem string
	GenerateUser   string
	FixSystem      string
	FixUser        string
	ReviewSystem   string
	ReviewUser     string
	ReviewCI       string
}{
	AnalyzeSystem: "You are an expert software architect. Analyze the issue and " +
		"determine which files need to be created or modified. " +
		"Respond in a structured format with file paths and actions.",

	AnalyzeUser: `Issue Description:
%s

Repository Structure:
%s

Please analyze what needs to be done and which files to modify.`,

	GenerateSystem: "You are an expert software developer. Your task is to analyze " +
		"the issue description and current code, then provide the updated " +
		"code that solves the issue. Return ONLY the complete updated code " +
		"without explanations.",

	GenerateUser: `Issue Description:
%s

File: %s

Current Code:
%s

Please provide the updated code that solves this issue.`,

	FixSystem: "You are an expert software developer. Fix the code based on the review feedback.",

	FixUser: `Original Issue:
%s

Current Code (%s):
%s

Review Feedback:
%s

Please provide the fixed code.`,

	ReviewSystem: "You are an expert code reviewer. Review the code changes and " +
		"provide constructive feedback. Check for: correctness, code quality, " +
		"potential bugs, security issues, and whether it solves the issue. " +
		"Return a JSON object with: approved (bool), feedback (str), " +
		"issues (list of strings).",

	ReviewUser: `Issue Description:
%s

Code Changes (diff):
%s%s

Please review these changes.`,

	ReviewCI: `

CI/CD Results:
%s`,
}
