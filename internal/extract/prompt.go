// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// extractionPromptTmpl is the prompt sent to the model for each analyzed
// post. It instructs the model to extract place candidates from the combined
// evidence and answer with a single JSON object.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`你是一個地點資訊擷取系統。請分析以下社群媒體貼文的內容，找出其中提到的每一個地點（餐廳、咖啡廳、景點、商店等）。

貼文說明：
{{if .Caption}}{{.Caption}}{{else}}（無貼文說明）{{end}}

語音內容：
{{if .Transcript}}{{.Transcript}}{{else}}（無語音內容）{{end}}

畫面描述：
{{if .Visual}}{{.Visual}}{{else}}（無畫面描述）{{end}}

來源帳號：{{if .Account}}{{.Account}}{{else}}（未知）{{end}}

請針對每一個地點提供：
- name: 地點名稱（原文語言）
- name_en: 英文名稱（若知道）
- city: 城市
- country: 國家
- address: 地址（若有提到）
- place_types: 類別標籤列表，例如 ["restaurant", "cafe", "attraction"]
- highlights: 推薦菜色或特色列表
- price_range: 價位，"$" 到 "$$$$"
- recommendation: 一句話推薦理由
- confidence: "high"、"medium" 或 "low"
- tags: 主題標籤列表
- search_keywords: 適合在地圖上搜尋的關鍵字列表，第一個應最精確

只回覆一個 JSON 物件，不要包含任何其他文字：
{"found": true, "places": [ ... ]}

若貼文完全沒有提到任何地點，回覆：
{"found": false, "notes": "原因"}

所有文字欄位請使用繁體中文（name_en 除外）。
`))

// promptData carries the evidence fields into the template.
type promptData struct {
	Caption    string
	Transcript string
	Visual     string
	Account    string
}

// renderPrompt executes the extraction prompt template over the evidence.
func renderPrompt(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
