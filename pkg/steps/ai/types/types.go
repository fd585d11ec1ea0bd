package types

type ApiType string

const (
	ApiTypeGemini ApiType = "gemini"
)
