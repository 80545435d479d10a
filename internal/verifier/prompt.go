package verifier

import (
	"fmt"
	"strings"
)

const knowledgeSystemPrompt = "你是一名专业的知识内容编辑，擅长把口语化的视频转写整理成结构清晰的学习笔记。"

const knowledgePromptTemplate = `%s的教学或知识类视频的转写文本。%s

请整理以下内容：
1. 按内容逻辑划分为 3-8 个章节
2. 每个章节给出 8-15 字的标题，概括该章节核心内容
3. 每个章节写 1-2 句小结
4. 写一段 3-5 句的总体总结，说明核心知识点和价值

转写文本：
` + "```" + `
%s
` + "```" + `

只返回如下结构的 JSON，不要附加任何说明：
{
  "overall_summary": "总体总结",
  "chapters": [
    {
      "title": "章节标题",
      "content": "本章节的完整正文（保留原文，只整理格式）",
      "summary": "章节小结"
    }
  ]
}

要求：
- 章节按原文顺序排列，相邻章节之间不重叠、不遗漏
- content 保留原文信息，不要大幅删减
- 必须是合法 JSON`

const proofreadSystemPrompt = "你是一名严谨的中文文本校对员。"

const proofreadPromptTemplate = `%s
请校对下面的中文转写文本：
1. 改正错别字和同音字
2. 修正标点符号
3. 统一术语写法
4. 保持原有分段和换行
5. 不增加、不删除内容，不添加任何解释

待校对文本：
` + "```" + `
%s
` + "```" + `

直接输出校对后的文本。`

func buildKnowledgePrompt(text, title, description string) string {
	subject := "这是一段"
	if title != "" {
		subject = fmt.Sprintf("这是关于「%s」", title)
	}
	desc := ""
	if d := strings.TrimSpace(description); d != "" {
		desc = "\n视频简介：" + d
	}
	return fmt.Sprintf(knowledgePromptTemplate, subject, desc, text)
}

func buildProofreadPrompt(text, title string) string {
	intro := ""
	if title != "" {
		intro = fmt.Sprintf("以下是视频「%s」的字幕。", title)
	}
	return fmt.Sprintf(proofreadPromptTemplate, intro, text)
}

// truncateRunes cuts text to at most limit runes, appending "..." when cut
func truncateRunes(text string, limit int) (string, bool) {
	if limit <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]) + "...", true
}
