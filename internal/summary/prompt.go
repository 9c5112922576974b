package summary

import (
	"strings"

	"github.com/ppiankov/pacta/internal/speaker"
)

// One-sentence frames that set the analysis mode before the model sees the
// schema. The default template needs none.
var preambles = map[string]map[string]string{
	"sales_call": {
		"en": "This is a SALES call. Extract commercial intelligence, not general discussion.",
		"ru": "Это ПРОДАЖНЫЙ звонок. Извлекай коммерческую информацию, а не общее содержание.",
	},
	"one_on_one": {
		"en": "This is a 1-on-1 meeting. Read for what the person is NOT saying as much as what they are.",
		"ru": "Это встреча 1-на-1. Обращай внимание не только на сказанное, но и на умолчания.",
	},
	"standup": {
		"en": "This is a daily standup. Compress ruthlessly.",
		"ru": "Это ежедневный стендап. Сжимай максимально.",
	},
	"interview": {
		"en": "This is a post-interview debrief. Be precise and honest. Vague assessments are useless.",
		"ru": "Это разбор после интервью. Будь точным и честным. Расплывчатые оценки бесполезны.",
	},
	"brainstorm": {
		"en": "This is a brainstorm. Identify what survived, not everything that was said.",
		"ru": "Это брейнсторм. Определи, какие идеи выжили, а не перечисляй всё сказанное.",
	},
}

var fieldRules = map[string]map[string]string{
	"default": {
		"en": "FIELD RULES:\n" +
			"- participants: everyone who spoke or was named. Format: 'Name (role)'. If no names: ['Speaker 1', 'Speaker 2']. Never [].\n" +
			"- key_points: 3-7 specific facts with names/numbers/dates. One sentence each. NOT topic labels. " +
			"BAD: 'API discussed'. GOOD: 'Client deadline is May 15, no extension possible'.\n" +
			"- decisions: ONLY firm decisions that CLOSE a question. Not opinions, not topics discussed. " +
			"If none: [\"No decisions made.\"].\n" +
			"- action_items: tasks with a named owner. Format: '@Name: task [by deadline]'. " +
			"Exclude vague suggestions. If none: [\"No action items assigned.\"].\n" +
			"- summary: exactly 2-3 sentences. 1) Why this call happened. 2) Main outcome or decision. " +
			"3) What remains unresolved. Plain text only — no markdown, no bullets.\n" +
			"- title: 5-8 words. WHO + WHAT + OUTCOME. Never generic: no 'meeting', 'discussion', 'call'. " +
			"GOOD: 'Q3 Budget Approved, Hiring Frozen'.\n" +
			"- entities: people, companies, products, tools. Type: person/company/product/tool. If none: [].",
		"ru": "ПРАВИЛА ПОЛЕЙ:\n" +
			"- participants: все кто говорил или был назван. Формат: «Имя (роль)». Если имён нет: " +
			"[\"Говорящий 1\", \"Говорящий 2\"]. Никогда не [].\n" +
			"- key_points: 3-7 конкретных фактов с именами/числами/датами. По одному предложению. " +
			"НЕ названия тем. Плохо: «Обсуждение API». Хорошо: «Дедлайн клиента — 15 мая, перенос невозможен».\n" +
			"- decisions: ТОЛЬКО принятые решения, которые ЗАКРЫВАЮТ вопрос. Не мнения, не обсуждения. " +
			"Если нет: [\"Решений не принято.\"].\n" +
			"- action_items: задачи с конкретным исполнителем. Формат: «@Имя: задача [к сроку]». " +
			"Без размытых предложений. Если нет: [\"Задач не назначено.\"].\n" +
			"- summary: ровно 2-3 предложения. 1) Зачем был звонок. 2) Главный результат или решение. " +
			"3) Что нерешено. Только текст — без markdown, без списков.\n" +
			"- title: 5-8 слов. КТО + ЧТО + РЕЗУЛЬТАТ. Не общие слова: не «встреча», не «обсуждение». " +
			"Хорошо: «Бюджет Q3 одобрен, найм заморожен».\n" +
			"- entities: люди, компании, продукты, инструменты. Тип: person/company/product/tool. Если нет: [].",
	},
	"sales_call": {
		"en": "FIELD RULES:\n" +
			"- participants: all people on the call. 'Name (role/company)'. Never [].\n" +
			"- objections: explicit resistance or doubt from the prospect. Quote their words. " +
			"Categorize: PRICE/TIMING/TRUST/FIT. If none: [\"No objections raised.\"].\n" +
			"- budget_signals: any mention of money, budget, pricing capacity. Quote exact words. " +
			"If none: [\"Budget not discussed.\"].\n" +
			"- decision_makers: who makes the buying decision. 'Name (role)'. " +
			"If unclear: [\"Decision process not clarified.\"].\n" +
			"- next_steps: concrete time-bound commitments. '@Name: action [by when]'. " +
			"Not vague \"follow up\". If none: [\"No next steps agreed.\"].\n" +
			"- summary: 1 sentence. Who, buying stage, most important commercial signal.\n" +
			"- title: prospect name + stage. 'Acme Corp — Budget Objection, Proposal Requested'.\n" +
			"- entities: people, companies, products mentioned. If none: [].",
		"ru": "ПРАВИЛА ПОЛЕЙ:\n" +
			"- participants: все участники. «Имя (роль/компания)». Никогда не [].\n" +
			"- objections: явное сопротивление или сомнение клиента. Цитируй их слова. " +
			"Категория: ЦЕНА/СРОКИ/ДОВЕРИЕ/СООТВЕТСТВИЕ. Если нет: [\"Возражений не было.\"].\n" +
			"- budget_signals: любое упоминание денег, бюджета, ценовых возможностей. Точные цитаты. " +
			"Если нет: [\"Бюджет не обсуждался.\"].\n" +
			"- decision_makers: кто принимает решение о покупке. «Имя (роль)». " +
			"Если неясно: [\"Процесс решения не прояснён.\"].\n" +
			"- next_steps: конкретные обязательства со сроками. «@Имя: действие [к когда]». " +
			"Не размытое «продолжить общение». Если нет: [\"Следующих шагов не согласовано.\"].\n" +
			"- summary: 1 предложение. Кто, стадия воронки, главный коммерческий сигнал.\n" +
			"- title: имя клиента + стадия. «Acme Corp — возражение по цене, запрошено КП».\n" +
			"- entities: люди, компании, продукты. Если нет: [].",
	},
	"one_on_one": {
		"en": "FIELD RULES:\n" +
			"- participants: both people. 'Name (role)'. Never [].\n" +
			"- feedback: both directions. Prefix: 'Manager→Report:' or 'Report→Manager:'. " +
			"Only specific evaluative feedback. If none: [\"No feedback exchanged.\"].\n" +
			"- blockers: specific obstacles preventing progress. Include systemic blockers. " +
			"If none: [\"No blockers surfaced.\"].\n" +
			"- goals: commitments, development targets discussed. " +
			"If none: [\"No goals set or reviewed.\"].\n" +
			"- mood: 1 sentence. Observable behavioral signals only — energy, stress, engagement. " +
			"Quote the transcript. Do NOT infer emotions or psychological states.\n" +
			"- summary: 1 sentence capturing the person's current professional state.\n" +
			"- title: include person's name. 'Alex 1-on-1 — Reorg Concerns, Promotion Timeline'.\n" +
			"- entities: people, teams, projects mentioned. If none: [].",
		"ru": "ПРАВИЛА ПОЛЕЙ:\n" +
			"- participants: оба участника. «Имя (роль)». Никогда не [].\n" +
			"- feedback: в обе стороны. Префикс: «Руководитель→Сотрудник:» или «Сотрудник→Руководитель:». " +
			"Только конкретная оценочная обратная связь. Если нет: [\"Обратной связи не было.\"].\n" +
			"- blockers: конкретные препятствия для прогресса. Включай системные блокеры. " +
			"Если нет: [\"Блокеров не озвучено.\"].\n" +
			"- goals: обязательства, цели развития. " +
			"Если нет: [\"Цели не обсуждались.\"].\n" +
			"- mood: 1 предложение. Только наблюдаемые сигналы — энергия, стресс, вовлечённость. " +
			"Цитируй транскрипт. НЕ выводы об эмоциях.\n" +
			"- summary: 1 предложение о текущем профессиональном состоянии.\n" +
			"- title: укажи имя. «1-на-1 с Алексом — тревога по реорганизации, сроки повышения».\n" +
			"- entities: люди, команды, проекты. Если нет: [].",
	},
	"standup": {
		"en": "FIELD RULES:\n" +
			"- participants: first names only. Never [].\n" +
			"- done_yesterday: completed items only. Verb + what. Max 8 words each. " +
			"'Shipped login page to staging.' NOT 'Worked on login page.'\n" +
			"- doing_today: planned items. Same format.\n" +
			"- blockers: genuine blockers preventing work, not risks or concerns. " +
			"If none: [\"No blockers.\"]. Never empty.\n" +
			"- summary: 1 sentence, max 15 words. Team state today.\n" +
			"- title: date + focus area. 'Feb 20 Standup — Auth Blocked, 3 Items Done'.\n" +
			"- entities: projects, tools mentioned. If none: [].",
		"ru": "ПРАВИЛА ПОЛЕЙ:\n" +
			"- participants: только имена. Никогда не [].\n" +
			"- done_yesterday: только завершённые задачи. Глагол + что. Максимум 8 слов. " +
			"«Выкатили авторизацию на стейджинг». НЕ «Работали над авторизацией».\n" +
			"- doing_today: запланированные задачи. Тот же формат.\n" +
			"- blockers: только реальные блокеры, не риски. " +
			"Если нет: [\"Блокеров нет.\"]. Никогда не пустой.\n" +
			"- summary: 1 предложение, максимум 15 слов. Состояние команды.\n" +
			"- title: дата + направление. «Стендап 20 фев — блокер авторизации, 3 задачи выполнены».\n" +
			"- entities: проекты, инструменты. Если нет: [].",
	},
	"interview": {
		"en": "FIELD RULES:\n" +
			"- participants: candidate + interviewers. 'Name (role)'. Never [].\n" +
			"- strengths: specific competency + evidence. " +
			"'Competency: X. Evidence: what they demonstrated.' Job-relevant only. 3-5 items.\n" +
			"- concerns: specific gap + evidence. Job-relevant only. " +
			"No inferences about personality or background. 2-4 items.\n" +
			"- culture_fit: candidate's OWN stated work preferences only. Quote them. " +
			"If not discussed: empty string.\n" +
			"- recommendation: interviewer's EXPLICIT stated assessment only. " +
			"Do NOT generate your own opinion. If none stated: 'No explicit recommendation recorded.'\n" +
			"- summary: 1 sentence. Candidate, role, overall signal (strong/mixed/weak).\n" +
			"- title: candidate + role + signal. " +
			"'Sarah K — Backend Lead — Strong Technical, Communication Concern'.\n" +
			"- entities: candidate, company, technologies discussed. If none: [].",
		"ru": "ПРАВИЛА ПОЛЕЙ:\n" +
			"- participants: кандидат + интервьюеры. «Имя (роль)». Никогда не [].\n" +
			"- strengths: конкретная компетенция + доказательство. " +
			"«Компетенция: X. Доказательство: что продемонстрировал». Только по работе. 3-5 пунктов.\n" +
			"- concerns: конкретный пробел + доказательство. Только по работе. " +
			"Без выводов о личности. 2-4 пункта.\n" +
			"- culture_fit: ТОЛЬКО высказанные кандидатом предпочтения. Цитируй. " +
			"Если не обсуждалось: пустая строка.\n" +
			"- recommendation: ТОЛЬКО явная оценка интервьюера. НЕ генерируй своё мнение. " +
			"Если не было: 'Рекомендации не прозвучало.'\n" +
			"- summary: 1 предложение. Кандидат, роль, сигнал (сильный/смешанный/слабый).\n" +
			"- title: кандидат + роль + сигнал. " +
			"«Саша К — Lead Backend — сильная техника, вопросы по коммуникации».\n" +
			"- entities: кандидат, компания, технологии. Если нет: [].",
	},
	"brainstorm": {
		"en": "FIELD RULES:\n" +
			"- participants: everyone who contributed ideas. Never [].\n" +
			"- ideas: ideas that got sustained attention (not passing mentions). " +
			"'Idea — one line description'. 3-7 items.\n" +
			"- feasibility: ONLY concerns explicitly raised during discussion, " +
			"not your assessment. 'Idea: concern raised'. If none discussed: [].\n" +
			"- next_steps: concrete actions. '@Name: what [by when]'. Not 'explore further'.\n" +
			"- summary: 1 sentence. Session direction and most promising outcome.\n" +
			"- title: topic + direction. 'Growth Brainstorm — Referral Program Selected'.\n" +
			"- entities: products, tools, companies discussed. If none: [].",
		"ru": "ПРАВИЛА ПОЛЕЙ:\n" +
			"- participants: все кто предлагал идеи. Никогда не [].\n" +
			"- ideas: идеи, получившие реальное внимание (не мимолётные). " +
			"«Идея — описание». 3-7 пунктов.\n" +
			"- feasibility: ТОЛЬКО проблемы, явно озвученные в обсуждении, " +
			"не твоя оценка. «Идея: озвученная проблема». Если не обсуждалось: [].\n" +
			"- next_steps: конкретные действия. «@Имя: что [к когда]». Не 'изучить подробнее'.\n" +
			"- summary: 1 предложение. Направление сессии и самый перспективный результат.\n" +
			"- title: тема + направление. «Брейнсторм по росту — выбрана реферальная программа».\n" +
			"- entities: продукты, инструменты, компании. Если нет: [].",
	},
}

// One-shot examples, only for the default template. A concrete quality
// target teaches a small model more than another rule does.
var examples = map[string]map[string]string{
	"default": {
		"en": `{
  "participants": [
    "Anna (CEO)",
    "Mark (product)",
    "Irina (marketing)"
  ],
  "key_points": [
    "Q3 budget overrun of $200k identified",
    "Hiring freeze effective immediately across all departments",
    "Marketing budget cut from $500k to $400k for Q4",
    "Product roadmap shifted to retention over growth features"
  ],
  "decisions": [
    "Hiring freeze approved by CEO until end of Q4",
    "Marketing budget cut by 20%"
  ],
  "action_items": [
    "@Anna: update job postings to reflect hiring pause by Friday",
    "@Mark: revise Q4 roadmap and share with team by Monday"
  ],
  "summary": "Team agreed to freeze hiring until Q4 due to Q3 budget overruns. Marketing budget cut by 20%. Next step: Mark revises roadmap by Monday.",
  "title": "Hiring Freeze and Marketing Budget Cut Approved",
  "entities": [
    {"name": "Anna", "type": "person"},
    {"name": "Mark", "type": "person"},
    {"name": "Irina", "type": "person"}
  ]
}`,
		"ru": `{
  "participants": [
    "Анна (CEO)",
    "Марк (продукт)",
    "Ирина (маркетинг)"
  ],
  "key_points": [
    "Перерасход бюджета Q3 на 200к",
    "Найм заморожен с сегодняшнего дня по всем отделам",
    "Бюджет маркетинга урезан с 500к до 400к на Q4",
    "Дорожная карта: фокус на удержание вместо роста"
  ],
  "decisions": [
    "Заморозка найма одобрена CEO до конца Q4",
    "Бюджет маркетинга урезан на 20%"
  ],
  "action_items": [
    "@Анна: обновить вакансии к пятнице",
    "@Марк: пересмотреть дорожную карту Q4, разослать команде к понедельнику"
  ],
  "summary": "Команда согласовала заморозку найма до Q4 из-за перерасхода бюджета. Бюджет маркетинга урезан на 20%. Марк пересмотрит дорожную карту к понедельнику.",
  "title": "Заморозка найма и сокращение бюджета маркетинга",
  "entities": [
    {"name": "Анна", "type": "person"},
    {"name": "Марк", "type": "person"},
    {"name": "Ирина", "type": "person"}
  ]
}`,
	},
}

// BuildPrompt assembles the summarization prompt. The structure keeps key
// constraints at both ends of the context window: identity and rules up
// front, a reminder after the transcript.
func BuildPrompt(templateName, transcript, notes string, segments []speaker.Segment) string {
	t, ok := GetTemplate(templateName)
	effectiveName := templateName
	if !ok {
		t, _ = GetTemplate("default")
		effectiveName = "default"
	}
	lang := detectLanguage(transcript)
	schema := buildSchema(t, lang)

	var identity string
	if lang == "ru" {
		identity = "Ты — движок извлечения данных в JSON. " +
			"Твоя ЕДИНСТВЕННАЯ задача — прочитать транскрипт и вывести один валидный JSON объект. " +
			"НЕ обращайся к пользователю. НЕ объясняй действия. ТОЛЬКО JSON."
	} else {
		identity = "You are a JSON extraction engine. " +
			"Your ONLY job is to read the transcript and output a single valid JSON object. " +
			"Do NOT address the user. Do NOT explain. ONLY JSON."
	}

	var rules string
	if lang == "ru" {
		rules = "ПРАВИЛА:\n" +
			"1. Выводи ТОЛЬКО JSON объект — без markdown, без ```json, без текста до или после.\n" +
			"2. Используй ТОЛЬКО поля из схемы ниже. НЕ добавляй лишних полей.\n" +
			"3. Используй язык транскрипта для всех значений.\n" +
			"4. Заполняй в порядке схемы: participants и факты первыми, summary и title — последними."
	} else {
		rules = "RULES:\n" +
			"1. Output ONLY the JSON object — no markdown, no ```json, no text before or after.\n" +
			"2. Use ONLY the fields shown in the schema. Do NOT add extra fields.\n" +
			"3. Use the transcript language for all values.\n" +
			"4. Fill fields in schema order: participants and facts first, summary and title last."
	}

	schemaLabel := "OUTPUT SCHEMA (use ONLY these fields):"
	if lang == "ru" {
		schemaLabel = "СХЕМА (выводи ТОЛЬКО эти поля):"
	}

	rulesBlock := fieldRules["default"][lang]
	if byLang, ok := fieldRules[effectiveName]; ok {
		rulesBlock = byLang[lang]
	}

	parts := []string{identity}
	if p := preambles[effectiveName][lang]; p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, "", rules, "", schemaLabel, schema, "", rulesBlock)

	if ex := examples[effectiveName][lang]; ex != "" {
		label := "EXAMPLE OF GOOD OUTPUT:"
		if lang == "ru" {
			label = "ПРИМЕР ХОРОШЕГО ОТВЕТА:"
		}
		parts = append(parts, "", label+"\n"+ex)
	}

	if len(segments) > 0 {
		instruction := "Transcript has [M:SS] timestamps. Reference them in key_points: prefix each with [M:SS]."
		if lang == "ru" {
			instruction = "Транскрипт содержит метки [M:SS]. Ссылайся на них в key_points: [M:SS] в начале пункта."
		}
		parts = append(parts, "", instruction)
	}

	if notes != "" {
		label := "USER NOTES:"
		if lang == "ru" {
			label = "ЗАМЕТКИ ПОЛЬЗОВАТЕЛЯ:"
		}
		parts = append(parts, "", label+"\n"+notes)
	}

	transcriptLabel := "TRANSCRIPT:"
	if lang == "ru" {
		transcriptLabel = "ТРАНСКРИПТ:"
	}
	parts = append(parts, "", transcriptLabel+"\n"+formatTranscriptWithTimestamps(transcript, segments))

	reminder := "Remember: output ONLY JSON with schema fields. summary = 2-3 plain text sentences. Start your response with {"
	if lang == "ru" {
		reminder = "Напоминание: выведи ТОЛЬКО JSON с полями из схемы. summary = 2-3 предложения, без markdown. Начни ответ с {"
	}
	parts = append(parts, "", reminder)

	return strings.Join(parts, "\n")
}
