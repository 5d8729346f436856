package query

// Synonym groups drive both extraction vocabularies and synonym-aware matching.
// A keyword may sit in several groups; matching uses the union.
var (
	materialGroups = [][]string{
		{"กระดาษ", "paper", "kraft", "คราฟท์"},
		{"พลาสติก", "plastic", "pp", "pet", "ps"},
		{"ชานอ้อย", "bagasse"},
		{"pla", "ไบโอ", "bio", "ย่อยสลาย", "biodegradable"},
		{"โฟม", "foam"},
		{"อลูมิเนียม", "aluminium", "aluminum", "ฟอยล์", "foil"},
	}

	typeGroups = [][]string{
		{"แก้ว", "cup", "glass", "ถ้วย"},
		{"ชาม", "bowl", "ถ้วย"},
		{"กล่อง", "box", "container"},
		{"ฝา", "lid", "cover"},
		{"จาน", "plate", "dish"},
		{"ถุง", "bag"},
		{"หลอด", "straw"},
		{"ช้อน", "spoon"},
		{"ส้อม", "fork"},
		{"ขวด", "bottle"},
		{"ถาด", "tray"},
	}

	categoryGroups = [][]string{
		{"อาหาร", "food"},
		{"เครื่องดื่ม", "beverage", "drink"},
		{"กาแฟ", "coffee"},
		{"เบเกอรี่", "bakery", "ขนม", "dessert"},
		{"บรรจุภัณฑ์", "packaging"},
	}

	// enhancerSynonyms lists alternates appended to a query so lexical matching
	// works across scripts. Order is fixed for deterministic output.
	enhancerSynonyms = []struct {
		term      string
		alternate []string
	}{
		{"แก้ว", []string{"cup", "glass"}},
		{"cup", []string{"แก้ว"}},
		{"ถ้วย", []string{"cup", "bowl"}},
		{"ชาม", []string{"bowl"}},
		{"bowl", []string{"ชาม"}},
		{"กล่อง", []string{"box"}},
		{"box", []string{"กล่อง"}},
		{"ฝา", []string{"lid"}},
		{"lid", []string{"ฝา"}},
		{"จาน", []string{"plate"}},
		{"plate", []string{"จาน"}},
		{"ถุง", []string{"bag"}},
		{"bag", []string{"ถุง"}},
		{"หลอด", []string{"straw"}},
		{"straw", []string{"หลอด"}},
		{"ช้อน", []string{"spoon"}},
		{"spoon", []string{"ช้อน"}},
	}

	// stopPhrases are politeness and filler words removed before searching.
	stopPhrases = []string{
		"อยากได้", "ต้องการ", "รบกวน", "สอบถาม", "หน่อย",
		"please", "pls", "hello", "hi", "want", "need", "looking for", "do you have", "i",
	}

	// endParticles close a Thai sentence. They also start ordinary words ("คะแนน"),
	// so they are only removed before whitespace or at the end of the message.
	endParticles = []string{"ครับ", "ค่ะ", "คะ", "จ้า", "จ้ะ"}

	// followUpIndicators mark a message as referring back to the previous turn.
	followUpIndicators = []string{
		"เท่าไหร่", "เท่าไร", "ราคา", "กี่บาท", "เหลือ", "อันนี้", "ตัวนี้", "ชิ้นนี้", "ใบนี้",
		"อันนั้น", "ตัวนั้น", "แบบนี้", "นี้", "สีอะไร", "ส่งได้",
		"this", "that", "it", "price", "how much", "still",
	}

	// sizeWords are scored when present in both query and product.
	sizeWords = []string{"s", "m", "l", "xl", "small", "medium", "large", "เล็ก", "กลาง", "ใหญ่"}

	// genericCategoryWords replace the search terms on the general-keyword retry.
	genericCategoryWords = []string{
		"แก้ว", "กล่อง", "ถุง", "ฝา", "จาน", "ชาม", "หลอด", "ช้อน",
		"cup", "box", "bag", "lid", "plate", "bowl", "straw",
	}

	// defaultGenericWords is used when the query shares nothing with genericCategoryWords.
	defaultGenericWords = []string{"แก้ว", "กล่อง", "บรรจุภัณฑ์"}

	// tokenStopWords are dropped when tokenizing for lexical scoring.
	tokenStopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "for": {}, "with": {}, "of": {},
		"is": {}, "are": {}, "have": {}, "has": {}, "any": {}, "some": {},
		"มี": {}, "ไหม": {}, "มั้ย": {}, "มั๊ย": {}, "และ": {}, "หรือ": {}, "ที่": {}, "แบบ": {},
		"ครับ": {}, "ค่ะ": {}, "คะ": {}, "นะ": {}, "บ้าง": {}, "อะไร": {},
	}
)

// flatten returns the distinct keywords of groups in first-seen order.
func flatten(groups [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, w := range g {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// synonymsOf returns keyword plus every word sharing a group with it.
func synonymsOf(groups [][]string, keyword string) []string {
	out := []string{keyword}
	seen := map[string]struct{}{keyword: {}}
	for _, g := range groups {
		in := false
		for _, w := range g {
			if w == keyword {
				in = true
				break
			}
		}
		if !in {
			continue
		}
		for _, w := range g {
			if _, ok := seen[w]; !ok {
				seen[w] = struct{}{}
				out = append(out, w)
			}
		}
	}
	return out
}
