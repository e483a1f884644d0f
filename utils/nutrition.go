package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// Nutrients is the structured form of an AI nutrition description.
type Nutrients struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber"`
}

// Add returns the field-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Fat:      n.Fat + o.Fat,
		Carbs:    n.Carbs + o.Carbs,
		Fiber:    n.Fiber + o.Fiber,
	}
}

// Value returns the named nutrient. Unknown names return 0.
func (n Nutrients) Value(name string) float64 {
	switch strings.ToLower(name) {
	case "calories":
		return float64(n.Calories)
	case "protein":
		return n.Protein
	case "fat":
		return n.Fat
	case "carbs", "carbohydrates":
		return n.Carbs
	case "fiber":
		return n.Fiber
	}
	return 0
}

// NutritionTemplate is the exact shape the text model is asked to answer with.
const NutritionTemplate = "Calories: __ kcal\nProtein: __ g\nFat: __ g\nCarbohydrates: __ g\nFiber: __ g"

var nutritionRe = regexp.MustCompile(
	`Calories:\s*(\d+)\s*kcal\s*Protein:\s*([\d.]+)\s*g\s*Fat:\s*([\d.]+)\s*g\s*Carbohydrates:\s*([\d.]+)\s*g\s*Fiber:\s*([\d.]+)\s*g`,
)

// ParseNutrients matches all five fields at once. If any field is missing, out of
// order or not a number, it returns the zero record and false.
func ParseNutrients(info string) (Nutrients, bool) {
	m := nutritionRe.FindStringSubmatch(info)
	if m == nil {
		return Nutrients{}, false
	}

	cal, err := strconv.Atoi(m[1])
	if err != nil {
		return Nutrients{}, false
	}
	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSuffix(m[i+2], "."), 64)
		if err != nil {
			return Nutrients{}, false
		}
		vals[i] = v
	}

	return Nutrients{
		Calories: cal,
		Protein:  vals[0],
		Fat:      vals[1],
		Carbs:    vals[2],
		Fiber:    vals[3],
	}, true
}

// ExtractNutrients is ParseNutrients without the match flag.
func ExtractNutrients(info string) Nutrients {
	n, _ := ParseNutrients(info)
	return n
}

// NutrientsFromValue accepts loosely typed document values; nil and non-strings
// yield the zero record.
func NutrientsFromValue(v any) Nutrients {
	switch s := v.(type) {
	case string:
		return ExtractNutrients(s)
	case *string:
		if s == nil {
			return Nutrients{}
		}
		return ExtractNutrients(*s)
	}
	return Nutrients{}
}

var (
	lenientCalories = regexp.MustCompile(`(?i)Calories:\s*(\d+)`)
	lenientProtein  = regexp.MustCompile(`(?i)Protein:\s*(\d+\.?\d*)`)
	lenientFat      = regexp.MustCompile(`(?i)Fat:\s*(\d+\.?\d*)`)
	lenientCarbs    = regexp.MustCompile(`(?i)Carbohydrates:\s*(\d+\.?\d*)`)
	lenientFiber    = regexp.MustCompile(`(?i)Fiber:\s*(\d+\.?\d*)`)
)

// ExtractNutrientsLenient recovers each field on its own, in any order. Fields that
// are not found stay zero.
func ExtractNutrientsLenient(info string) Nutrients {
	find := func(re *regexp.Regexp) float64 {
		m := re.FindStringSubmatch(info)
		if m == nil {
			return 0
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return v
	}
	return Nutrients{
		Calories: int(find(lenientCalories)),
		Protein:  find(lenientProtein),
		Fat:      find(lenientFat),
		Carbs:    find(lenientCarbs),
		Fiber:    find(lenientFiber),
	}
}

// NutrientParser turns nutrition text into numbers and reports whether the whole
// template was recognised.
type NutrientParser func(info string) (Nutrients, bool)

// ParserForMode returns the strict parser unless mode is "lenient".
func ParserForMode(mode string) NutrientParser {
	if strings.EqualFold(mode, "lenient") {
		return func(info string) (Nutrients, bool) {
			_, ok := ParseNutrients(info)
			return ExtractNutrientsLenient(info), ok
		}
	}
	return ParseNutrients
}
