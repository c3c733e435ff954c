package model

import "github.com/pkoukk/tiktoken-go"

// CountTokens estimates prompt size with the gpt-3.5-turbo encoding, which is
// close enough for budgeting context across providers.
func CountTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(text, nil, nil)
	return len(tokens), nil
}
