package dimension

// Element indices: 0 wood, 1 fire, 2 earth, 3 metal, 4 water.
const (
	Wood = iota
	Fire
	Earth
	Metal
	Water
)

// ElementNames in index order.
var ElementNames = [5]string{"wood", "fire", "earth", "metal", "water"}

// stemElements maps each heavenly stem to its element.
var stemElements = map[rune]int{
	'甲': Wood, '乙': Wood,
	'丙': Fire, '丁': Fire,
	'戊': Earth, '己': Earth,
	'庚': Metal, '辛': Metal,
	'壬': Water, '癸': Water,
}

// branchElements maps each earthly branch to its element.
var branchElements = map[rune]int{
	'寅': Wood, '卯': Wood,
	'巳': Fire, '午': Fire,
	'丑': Earth, '辰': Earth, '未': Earth, '戌': Earth,
	'申': Metal, '酉': Metal,
	'亥': Water, '子': Water,
}

// Stem characters weigh more than branch characters in the element tally.
const (
	stemWeight   = 1.0
	branchWeight = 0.6
)

// flowWeights is the fixed per-element flow weighting dotted with the
// normalized distribution in the temporal score.
var flowWeights = [5]float64{0.90, 1.00, 0.80, 0.70, 0.85}

// TrigramNames in the order used by the hexagram table (乾 = 1 … 坤 = 8).
var TrigramNames = [8]string{"乾", "兑", "离", "震", "巽", "坎", "艮", "坤"}

// hexagramNames is the full 64-entry composite-name table indexed by
// (upper-1)*8 + (lower-1), rows by upper trigram in TrigramNames order.
var hexagramNames = [64]string{
	"乾为天", "天泽履", "天火同人", "天雷无妄", "天风姤", "天水讼", "天山遁", "天地否",
	"泽天夬", "兑为泽", "泽火革", "泽雷随", "泽风大过", "泽水困", "泽山咸", "泽地萃",
	"火天大有", "火泽睽", "离为火", "火雷噬嗑", "火风鼎", "火水未济", "火山旅", "火地晋",
	"雷天大壮", "雷泽归妹", "雷火丰", "震为雷", "雷风恒", "雷水解", "雷山小过", "雷地豫",
	"风天小畜", "风泽中孚", "风火家人", "风雷益", "巽为风", "风水涣", "风山渐", "风地观",
	"水天需", "水泽节", "水火既济", "水雷屯", "水风井", "坎为水", "水山蹇", "水地比",
	"山天大畜", "山泽损", "山火贲", "山雷颐", "山风蛊", "山水蒙", "艮为山", "山地剥",
	"地天泰", "地泽临", "地火明夷", "地雷复", "地风升", "地水师", "地山谦", "坤为地",
}

// Harmony tiers. Hexagrams not named in either set score the neutral tier.
var (
	favorableHexagrams = map[string]bool{
		"地天泰": true, "地山谦": true, "天火同人": true, "火天大有": true,
		"水火既济": true, "火风鼎": true, "泽山咸": true, "雷地豫": true,
		"风雷益": true,
	}
	unfavorableHexagrams = map[string]bool{
		"天地否": true, "泽水困": true, "水山蹇": true, "山地剥": true,
		"地火明夷": true, "天水讼": true, "泽风大过": true, "山水蒙": true,
	}
)

const (
	harmonyFavorable   = 0.85
	harmonyUnfavorable = 0.35
	harmonyNeutral     = 0.60
)

// Numerology lookup tables indexed by digital root 0–9.
var (
	lifePathTable = [10]float64{0.42, 0.78, 0.55, 0.70, 0.48, 0.62, 0.74, 0.58, 0.82, 0.66}
	questionTable = [10]float64{0.50, 0.64, 0.58, 0.72, 0.44, 0.60, 0.68, 0.52, 0.76, 0.62}
	bridgeTable   = [10]float64{0.46, 0.60, 0.54, 0.68, 0.50, 0.64, 0.70, 0.56, 0.74, 0.58}
)
