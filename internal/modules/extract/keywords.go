// README: Keyword tables for intent gating, car classes and note fragments.
package extract

import "bvetra/internal/modules/draft"

// intentKeywords authorise extraction. Matching is case-insensitive substring
// search over the transcript window, so stems cover inflected forms
// ("заказать", "поездку", ...). Russian and English only; other languages are
// out of scope.
var intentKeywords = []string{
	"заказ",
	"трансфер",
	"такси",
	"поездк",
	"аэропорт",
	"вокзал",
	"забрать",
	"подач",
	"бронь",
	"брониров",
	"order",
	"transfer",
	"taxi",
	"ride",
	"airport",
	"pickup",
	"pick up",
	"book",
}

// carClassKeywords map trigger words onto the car class enum. The keyword
// with the earliest occurrence in the window wins.
var carClassKeywords = []struct {
	keyword string
	class   draft.CarClass
}{
	{"минивэн", draft.CarClassMinivan},
	{"минивен", draft.CarClassMinivan},
	{"minivan", draft.CarClassMinivan},
	{"бизнес", draft.CarClassBusiness},
	{"business", draft.CarClassBusiness},
	{"премиум", draft.CarClassPremium},
	{"premium", draft.CarClassPremium},
	{"люкс", draft.CarClassPremium},
	{"комфорт", draft.CarClassComfort},
	{"comfort", draft.CarClassComfort},
	{"стандарт", draft.CarClassStandard},
	{"standard", draft.CarClassStandard},
	{"эконом", draft.CarClassStandard},
}

// noteKeywords contribute short annotations; each group adds its fragment at
// most once per extraction.
var noteKeywords = []struct {
	triggers []string
	fragment string
}{
	{[]string{"багаж", "чемодан", "luggage", "suitcase"}, "багаж"},
	{[]string{"табличк", "встретит", "meet and greet", "с табличкой"}, "встреча с табличкой"},
	{[]string{"детск", "ребен", "ребён", "child seat", "child"}, "детское кресло"},
	{[]string{"животн", "собак", "кошк", "pet", "dog"}, "перевозка животного"},
}
