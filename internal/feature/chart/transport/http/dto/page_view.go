package dto

// SlotView はチェックボックス1つ分の表示データです。
// Categories と Spot はメタル名をキーに持ちます。
type SlotView struct {
	ID         string
	Label      string
	Color      string
	Checked    bool
	Categories map[string]string
	Spot       map[string]bool
}

// PageView はダッシュボードのルートページのテンプレートデータです。
type PageView struct {
	Title         string
	Vendors       []string
	DefaultVendor string
	DefaultMetal  string
	Metals        []string
	Slots         []SlotView
	History       map[string]string
}
