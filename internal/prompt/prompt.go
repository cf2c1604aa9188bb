package prompt

import (
	"strings"
)

// DefaultSystemPrompt is the support persona used until the user edits it.
const DefaultSystemPrompt = `あなたは自転車シェアリングサービスCiti BikeのカスタマーサポートAIアシスタントです。
「お客様からの質問」はお客様が実際に投げかけた質問です。
「利用規約抜粋」はCiti Bike利用規約から抽出された抜粋です。
「お客様からの質問」に対して、「利用規約抜粋」の情報に基づいて、回答を生成してください。
なお、回答にあたっては以下の「ルール」を守ること。

「ルール」
・必ず最初に、質問頂いたことに対する御礼を述べること。
・必ず「利用規約抜粋」の根拠に基づいて簡潔かつ正確に回答してください。
・根拠が十分でない場合は、推測せず「手元の情報では断定できません」と述べてください。
・必要に応じて注意事項や手順を番号付きで示してください。
・出力は日本語で返してください。
`

// NoContextMarker stands in for the excerpts when retrieval found nothing.
const NoContextMarker = "(該当するコンテキストが見つかりませんでした)"

// ExampleQuestions are offered as quick-fill suggestions. The last one is
// deliberately off-topic.
var ExampleQuestions = []string{
	"どのような方法で課金がされますか？",
	"ヘルメットの着用は義務ですか？",
	"自転車に不備があった場合、どうすればよいですか？",
	"返却時にロック施錠を忘れた場合の対応は？",
	"利用中に事故が発生した際の流れを知りたいです。",
	"今日の晩御飯には何がオススメですか。",
}

// Section labels of the support prompt.
const (
	questionLabel = "[お客様からの質問]"
	excerptLabel  = "[利用規約抜粋]"
)

// BuildSupportPrompt flattens persona, question and retrieved excerpts into
// the single prompt string sent for completion. Inputs are inserted verbatim.
func BuildSupportPrompt(systemPrompt, question, contextText string) string {
	excerpts := contextText
	if strings.TrimSpace(contextText) == "" {
		excerpts = NoContextMarker
	}

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString(questionLabel + "\n")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(excerptLabel + "\n")
	b.WriteString(excerpts)
	b.WriteString(" \n\n")

	return b.String()
}

// BuildInsightsPrompt wraps a serialized table in the analyst template.
func BuildInsightsPrompt(question, tableText string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("    あなたは、自転車共有サービス「Citibike」の熟練データアナリストです。\n")
	b.WriteString("    あなたのタスクは、以下に提供される時間ごとの走行概要データセットに基づいて、ユーザーの質問に答えることです。\n")
	b.WriteString("    回答は、簡潔で、分かりやすく整形され、質問に直接答えるものでなければなりません。\n")
	b.WriteString("\n")
	b.WriteString("    ユーザーの質問: \"" + question + "\"\n")
	b.WriteString("\n")
	b.WriteString("    対象データ:\n")
	b.WriteString("    ")
	b.WriteString(tableText)

	return b.String()
}
