package discord

import (
	"strings"
	"unicode/utf8"

	"imageprompt/internal/domain"
)

// DiscordMessageLimit は、Discordのメッセージ文字数制限です
const DiscordMessageLimit = 2000

const (
	codeFence = "```"
	// コードブロック内の ``` を無害化するためのゼロ幅スペース
	zeroWidthSpace = "\u200b"
)

// formatPrompts は、2つのプロンプトをそれぞれコードブロックに入れたメッセージ群を作成します
// 各メッセージはDiscordMessageLimit以内に収まります
func formatPrompts(prompts *domain.GeneratedPrompts) []string {
	var blocks []string
	for _, lang := range domain.Languages() {
		text, _ := prompts.Text(lang)
		blocks = append(blocks, codeBlocks(lang.Label(), text)...)
	}
	return packBlocks(blocks, DiscordMessageLimit)
}

// formatError は、エラーを利用者向けのメッセージにします
func formatError(err error) string {
	return "❌ " + domain.UserMessage(err)
}

// codeBlocks は、見出しとコードブロックを作成します
// 本文が長い場合は複数のコードブロックに分割します
func codeBlocks(label, text string) []string {
	header := "**" + label + "**\n"
	text = strings.ReplaceAll(text, codeFence, "`"+zeroWidthSpace+"``")

	overhead := utf8.RuneCountInString(header) + utf8.RuneCountInString(codeFence+"\n\n"+codeFence)
	chunks := splitMessage(text, DiscordMessageLimit-overhead)

	blocks := make([]string, 0, len(chunks))
	for index, chunk := range chunks {
		block := codeFence + "\n" + chunk + "\n" + codeFence
		if index == 0 {
			block = header + block
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// packBlocks は、ブロックをできるだけ少ないメッセージにまとめます
func packBlocks(blocks []string, limit int) []string {
	var messages []string
	current := ""
	for _, block := range blocks {
		if current == "" {
			current = block
			continue
		}
		if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(block) <= limit {
			current += "\n" + block
			continue
		}
		messages = append(messages, current)
		current = block
	}
	if current != "" {
		messages = append(messages, current)
	}
	return messages
}

// splitMessage は、長いメッセージをlimit文字以内に分割します
// 改行、空白の順に区切り位置を探し、見つからない場合は強制的に分割します
func splitMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		splitIndex := lastIndexRune(runes[:limit], '\n')
		if splitIndex <= 0 {
			splitIndex = lastIndexRune(runes[:limit], ' ')
		}
		if splitIndex <= 0 {
			splitIndex = limit
		}

		chunks = append(chunks, string(runes[:splitIndex]))
		runes = []rune(strings.TrimLeft(string(runes[splitIndex:]), " \n"))
	}

	return chunks
}

func lastIndexRune(runes []rune, target rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
