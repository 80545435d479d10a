package subtitle

import (
	"testing"

	"github.com/asticode/go-astisub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/caption-doc/internal/models"
)

func TestParseSRT(t *testing.T) {
	content := "1\r\n00:00:00,000 --> 00:00:01,830\r\nI'm happy to\r\nhave you here.\r\n\r\n" +
		"2\r\n00:00:01,910 --> 00:01:03,610\r\n<i>Second</i> cue\r\n"

	got, err := Parse("video.srt", content)
	require.NoError(t, err)

	want := []models.TimedFragment{
		{Text: "I'm happy to\nhave you here.", Start: 0, End: 1.83},
		{Text: "Second cue", Start: 1.91, End: 63.61},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.InDelta(t, want[i].Start, got[i].Start, 1e-9)
		assert.InDelta(t, want[i].End, got[i].End, 1e-9)
	}
}

func TestParseVTT(t *testing.T) {
	content := `WEBVTT

cue-1
00:00:01.000 --> 00:00:02.500 align:start position:0%
大家好

00:00:03.000 --> 00:00:04.000
<c>今天</c>讲一下
`
	got, err := Parse("a.zh-Hans.vtt", content)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "大家好", got[0].Text)
	assert.InDelta(t, 2.5, got[0].End, 1e-9)
	assert.Equal(t, "今天讲一下", got[1].Text)
	assert.InDelta(t, 3.0, got[1].Start, 1e-9)
}

func TestParseASS(t *testing.T) {
	content := `[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.50,0:00:03.00,Default,,0,0,0,,{\b1}第一行\N第二行
Dialogue: 0,0:00:04.00,0:00:05.25,Default,,0,0,0,,逗号, 也保留
Dialogue: 0,0:00:06.00,0:00:07.00,Default,,0,0,0,,{\pos(1,1)}
`
	got, err := Parse("a.ass", content)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "第一行\n第二行", got[0].Text)
	assert.InDelta(t, 1.5, got[0].Start, 1e-9)
	assert.Equal(t, "逗号, 也保留", got[1].Text)
	assert.InDelta(t, 5.25, got[1].End, 1e-9)
}

func TestParseBilibiliJSON(t *testing.T) {
	content := `{"body":[{"from":0.5,"to":1.2,"content":"你好"},{"from":1.3,"to":2,"content":"  "}]}`
	got, err := Parse("BV1xx411c7mD.json", content)
	require.NoError(t, err)
	assert.Equal(t, []models.TimedFragment{{Text: "你好", Start: 0.5, End: 1.2}}, got)

	_, err = Parse("broken.json", "{")
	assert.Error(t, err)
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse("a.txt", "hello")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIsSubtitleFile(t *testing.T) {
	assert.True(t, IsSubtitleFile("/x/y.SRT"))
	assert.True(t, IsSubtitleFile("y.vtt"))
	assert.False(t, IsSubtitleFile("y.mp4"))
}

func TestLineText(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"latin runs get a space", []string{"Second", " cue "}, "Second cue"},
		{"han runs join directly", []string{"今天", "讲一下"}, "今天讲一下"},
		{"mixed runs", []string{"学习", "Go", "语言"}, "学习Go语言"},
		{"blank runs dropped", []string{" ", "a"}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var line astisub.Line
			for _, text := range tt.items {
				line.Items = append(line.Items, astisub.LineItem{Text: text})
			}
			assert.Equal(t, tt.want, lineText(line))
		})
	}
}

func TestCleanMarkup(t *testing.T) {
	assert.Equal(t, "第一行\n第二行", cleanMarkup(`{\b1}第一行\N第二行`))
	assert.Equal(t, "hello", cleanMarkup("<font color=\"red\">hello</font>"))
	assert.Equal(t, "", cleanMarkup(`{\pos(1,1)}`))
}
