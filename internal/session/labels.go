package session

import "strings"

// Language is one of the supported document languages.
type Language string

const (
	LangEnglish  Language = "en"
	LangKorean   Language = "ko"
	LangJapanese Language = "ja"
	LangChinese  Language = "zh"
	LangSpanish  Language = "es"
)

// Languages lists the supported languages in a stable order.
var Languages = []Language{LangEnglish, LangKorean, LangJapanese, LangChinese, LangSpanish}

// ParseLanguage normalizes a language code. Unknown or empty codes fall
// back to English so a bad setting never blocks a write.
func ParseLanguage(code string) Language {
	c := strings.ToLower(strings.TrimSpace(code))
	// Accept region-qualified codes such as "ko-KR" or "es_ES".
	if i := strings.IndexAny(c, "-_"); i > 0 {
		c = c[:i]
	}
	lang := Language(c)
	if _, ok := labelSets[lang]; ok {
		return lang
	}
	return LangEnglish
}

// Labels is the set of structural markers for one language.
type Labels struct {
	Session             string
	Created             string
	Updated             string
	Status              string
	PrimaryAgent        string
	RecommendedActAgent string
	Confidence          string
	Specialists         string
	Task                string
	Decisions           string
	Notes               string
}

// labelKey identifies a structural position independent of language.
type labelKey int

const (
	keyNone labelKey = iota
	keyCreated
	keyUpdated
	keyStatus
	keyPrimaryAgent
	keyRecommendedActAgent
	keySpecialists
	keyTask
	keyDecisions
	keyNotes
)

var labelSets = map[Language]Labels{
	LangEnglish: {
		Session:             "Session",
		Created:             "Created",
		Updated:             "Updated",
		Status:              "Status",
		PrimaryAgent:        "Primary Agent",
		RecommendedActAgent: "Recommended ACT Agent",
		Confidence:          "confidence",
		Specialists:         "Specialists",
		Task:                "Task",
		Decisions:           "Decisions",
		Notes:               "Notes",
	},
	LangKorean: {
		Session:             "세션",
		Created:             "생성",
		Updated:             "수정",
		Status:              "상태",
		PrimaryAgent:        "주 에이전트",
		RecommendedActAgent: "추천 ACT 에이전트",
		Confidence:          "신뢰도",
		Specialists:         "전문가",
		Task:                "작업",
		Decisions:           "결정사항",
		Notes:               "메모",
	},
	LangJapanese: {
		Session:             "セッション",
		Created:             "作成",
		Updated:             "更新",
		Status:              "ステータス",
		PrimaryAgent:        "主担当エージェント",
		RecommendedActAgent: "推奨ACTエージェント",
		Confidence:          "信頼度",
		Specialists:         "スペシャリスト",
		Task:                "タスク",
		Decisions:           "決定事項",
		Notes:               "メモ",
	},
	LangChinese: {
		Session:             "会话",
		Created:             "创建",
		Updated:             "更新",
		Status:              "状态",
		PrimaryAgent:        "主要代理",
		RecommendedActAgent: "推荐ACT代理",
		Confidence:          "置信度",
		Specialists:         "专家",
		Task:                "任务",
		Decisions:           "决策",
		Notes:               "备注",
	},
	LangSpanish: {
		Session:             "Sesión",
		Created:             "Creado",
		Updated:             "Actualizado",
		Status:              "Estado",
		PrimaryAgent:        "Agente Principal",
		RecommendedActAgent: "Agente ACT Recomendado",
		Confidence:          "confianza",
		Specialists:         "Especialistas",
		Task:                "Tarea",
		Decisions:           "Decisiones",
		Notes:               "Notas",
	},
}

// LabelsFor returns the label set for lang, falling back to English.
func LabelsFor(lang Language) Labels {
	if l, ok := labelSets[lang]; ok {
		return l
	}
	return labelSets[LangEnglish]
}

// Reverse lookups, built once. The parser recognizes every language's
// variant of every label at the same time, so a document keeps parsing
// after the configured language changes.
var (
	fieldLabels  map[string]labelKey // "**<label>**: value" lines
	headerLabels map[string]labelKey // "### <label>" lines
	sessionLabel map[string]bool     // "# <label>: title" lines
)

func init() {
	fieldLabels = make(map[string]labelKey)
	headerLabels = make(map[string]labelKey)
	sessionLabel = make(map[string]bool)

	for _, lang := range Languages {
		l := labelSets[lang]
		sessionLabel[l.Session] = true

		fieldLabels[l.Created] = keyCreated
		fieldLabels[l.Updated] = keyUpdated
		fieldLabels[l.Status] = keyStatus
		fieldLabels[l.PrimaryAgent] = keyPrimaryAgent
		fieldLabels[l.RecommendedActAgent] = keyRecommendedActAgent
		fieldLabels[l.Specialists] = keySpecialists

		headerLabels[l.Task] = keyTask
		headerLabels[l.Decisions] = keyDecisions
		headerLabels[l.Notes] = keyNotes
	}
}
