package query

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

var (
	priceWords         = []string{"ราคา", "เท่าไหร่", "เท่าไร", "กี่บาท", "บาท", "price", "cost", "how much"}
	availabilityWords  = []string{"เหลือ", "สต็อก", "สต๊อก", "stock", "available", "พร้อมส่ง", "in stock"}
	deliveryWords      = []string{"ส่ง", "จัดส่ง", "delivery", "shipping", "ship"}
	specificationWords = []string{"ขนาด", "ไซส์", "ไซซ์", "size", "สเปค", "spec", "ความจุ", "dimension"}
	materialWords      = []string{"วัสดุ", "material", "ทำจาก", "made of"}

	// "มี ... ไหม" asks whether something is in stock.
	haveQuestionRe = regexp.MustCompile(`มี.*(?:ไหม|มั้ย|มั๊ย|หรือเปล่า|ป่าว)`)
)

// DetectIntent derives intent flags from keywords and extracted attributes.
func DetectIntent(text string, attrs query.Attributes) query.Intent {
	lower := strings.ToLower(text)
	return query.Intent{
		Price:         ContainsAny(lower, priceWords),
		Availability:  ContainsAny(lower, availabilityWords) || haveQuestionRe.MatchString(lower),
		Delivery:      ContainsAny(lower, deliveryWords),
		Specification: ContainsAny(lower, specificationWords) || len(attrs.Dimensions) > 0,
		Material:      ContainsAny(lower, materialWords) || len(attrs.Materials) > 0,
	}
}
