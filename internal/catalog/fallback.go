package catalog

import (
	"context"

	"localchat/pkg/types"
)

// StaticSource serves a built-in list of well-known models. It never fails
// and is the last link of the default chain.
type StaticSource struct{}

func (StaticSource) Name() string { return SourceFallback }

func (StaticSource) Fetch(context.Context, Query) ([]types.ModelDescriptor, error) {
	out := make([]types.ModelDescriptor, len(fallbackModels))
	for i, m := range fallbackModels {
		m.Tags = append([]string(nil), m.Tags...)
		out[i] = m
	}
	return out, nil
}

func official(name, desc, size string, tags ...string) types.ModelDescriptor {
	return types.ModelDescriptor{Name: name, Description: desc, Size: size, Tags: tags, Official: true}
}

var fallbackModels = []types.ModelDescriptor{
	official("llama3.2", "Meta's latest Llama model (3.2B parameters)", "2.0GB", "chat", "general"),
	official("llama3.2:1b", "Llama 3.2 1B - Lightweight version", "1.3GB", "chat", "lightweight"),
	official("llama3.1", "Meta Llama 3.1 (8B parameters)", "4.7GB", "chat", "general"),
	official("llama3.1:70b", "Meta Llama 3.1 70B - High performance", "40GB", "chat", "high-performance"),
	official("llama3.3", "Meta Llama 3.3 - Latest version", "4.9GB", "chat", "latest"),
	official("codellama", "Code generation model based on Llama", "3.8GB", "code", "programming"),
	official("codegemma", "Google's code-focused Gemma model", "5.0GB", "code", "programming"),
	official("gemma2", "Google's Gemma 2 model", "5.4GB", "chat", "general"),
	official("gemma2:2b", "Gemma 2 2B - Efficient version", "1.6GB", "chat", "lightweight"),
	official("gemma2:27b", "Gemma 2 27B - High capacity version", "16GB", "chat", "high-performance"),
	official("mistral", "Mistral 7B model", "4.1GB", "chat", "general"),
	official("mixtral", "Mistral's Mixtral 8x7B MoE model", "26GB", "chat", "mixture-of-experts"),
	official("phi3", "Microsoft Phi-3 model", "2.3GB", "chat", "efficient"),
	official("phi3.5", "Microsoft Phi-3.5 model", "2.2GB", "chat", "efficient", "latest"),
	official("qwen2", "Alibaba Qwen2 model", "4.4GB", "chat", "multilingual"),
	official("qwen2.5", "Alibaba Qwen2.5 - Latest version", "4.4GB", "chat", "multilingual", "latest"),
	official("deepseek-coder", "DeepSeek Coder - Advanced coding model", "6.4GB", "code", "programming"),
	official("dolphin-mixtral", "Dolphin 2.7 Mixtral 8x7B", "26GB", "chat", "uncensored"),
	official("neural-chat", "Intel Neural Chat 7B", "4.1GB", "chat", "general"),
	official("starling-lm", "Starling LM 7B Alpha", "4.1GB", "chat", "general"),
	official("orca-mini", "Orca Mini 3B/7B/13B/70B", "1.9GB", "chat", "reasoning"),
	official("vicuna", "Vicuna 7B/13B/33B", "3.8GB", "chat", "general"),
	official("wizardcoder", "WizardCoder - Code generation specialist", "4.1GB", "code", "programming"),
	official("llava", "LLaVA - Large Language and Vision Assistant", "4.5GB", "multimodal", "vision"),
}
