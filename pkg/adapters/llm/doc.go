/*
Package llm implements the decision and generation collaborators on top of
chat completion models.

Two backends are provided: OpenAI compatible endpoints through go-openai and
Anthropic through the official SDK. Both satisfy Completer, which is the only
thing the Decider, Generator and ExtractingSearcher depend on.
*/
package llm
