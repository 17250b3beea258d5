package llm

// ModelInfo 是模型目录中的一条可选模型。
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// modelCatalog 是各提供商的内置模型目录，供前端下拉框使用。
// 不求穷举，只列常用项；任何模型 ID 都可以直接透传给提供商。
var modelCatalog = map[string][]ModelInfo{
	"gemini": {
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash"},
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro"},
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
	},
	"openrouter": {
		{ID: "openai/gpt-4o-mini", Name: "GPT-4o Mini"},
		{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet"},
		{ID: "meta-llama/llama-3.1-70b-instruct", Name: "Llama 3.1 70B"},
	},
	"huggingface": {
		{ID: "meta-llama/Llama-3.1-8B-Instruct", Name: "Llama 3.1 8B"},
		{ID: "Qwen/Qwen2.5-72B-Instruct", Name: "Qwen 2.5 72B"},
	},
	"mistral": {
		{ID: "mistral-large-latest", Name: "Mistral Large"},
		{ID: "mistral-small-latest", Name: "Mistral Small"},
		{ID: "open-mistral-nemo", Name: "Mistral Nemo"},
	},
	"cohere": {
		{ID: "command-r-plus", Name: "Command R+"},
		{ID: "command-r", Name: "Command R"},
	},
	"nvidia": {
		{ID: "meta/llama-3.1-405b-instruct", Name: "Llama 3.1 405B"},
		{ID: "nvidia/llama-3.1-nemotron-70b-instruct", Name: "Nemotron 70B"},
	},
	"chutes": {
		{ID: "deepseek-ai/DeepSeek-V3", Name: "DeepSeek V3"},
		{ID: "Qwen/Qwen2.5-72B-Instruct", Name: "Qwen 2.5 72B"},
	},
	"requesty": {
		{ID: "openai/gpt-4o-mini", Name: "GPT-4o Mini"},
		{ID: "google/gemini-2.0-flash", Name: "Gemini 2.0 Flash"},
	},
}

// Catalog 返回完整的提供商 → 模型目录。
func Catalog() map[string][]ModelInfo {
	return modelCatalog
}
