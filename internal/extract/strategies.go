package extract

// Extraction strategies. The primary prompt favors simple rules and reliable
// JSON output; the fallback is stricter and asks for a richer schema. Both
// are tried in order against each chunk.

const promptKarpathy = `Read this meeting transcript carefully.

SPEAKER_ME is the person who owns this app — identified via their microphone channel.
Other speakers are SPEAKER_OTHER_1, SPEAKER_OTHER_2, etc. Their names may be in the SPEAKER MAP below.

Your job: find every real promise made during this call.

A real promise is when a specific person says they will do a specific thing for someone.

TWO TYPES that matter:
1. OUTGOING — SPEAKER_ME made the promise → they need to act
2. INCOMING — someone promised SPEAKER_ME something → they are waiting

Think briefly before answering:
- Find all "I will / I'll / я сделаю / я отправлю / беру на себя" statements
- Check each one: is there a real specific actor? (not "we", not "someone")
- Is it a genuine commitment or just a casual mention?
- Then output JSON

IMPORTANT RULES:
1. Real promise = specific person + specific action + directed at someone. "We should do X" is NOT a promise.
2. Russian perfective future ("сделаю") = stronger signal than imperfective ("буду делать").
3. Deadline: copy exact words from transcript. Never interpret. "к пятнице" stays "к пятнице".
4. Names: use SPEAKER MAP names only if confidence >= 0.6, otherwise use speaker label.
5. Same promise stated multiple times → extract once.
6. Genuinely unsure? → include it with uncertain: true.

OUTPUT — valid JSON only, start with {:
{
  "commitments": [
    {
      "id": 1,
      "type": "outgoing" | "incoming",
      "who": "SPEAKER_ME" | "SPEAKER_OTHER_1" | "...",
      "who_name": "<from speaker_map if conf>=0.6>" | null,
      "to_whom": "SPEAKER_OTHER_1" | "SPEAKER_ME" | "...",
      "to_whom_name": "<from speaker_map if conf>=0.6>" | null,
      "what": "Send the revised proposal",
      "deadline": "<exact words from transcript>" | null,
      "quote": "<exact phrase that contains the commitment>",
      "timestamp": "00:03:42",
      "uncertain": false
    }
  ]
}`

const promptMurati = `You are a commitment extraction engine for a meeting intelligence system. Your only job is to identify, classify, and structure every commitment made during a call.

A commitment is any statement where a person explicitly or implicitly agrees to deliver something to someone by a point in time. Includes: direct promises ("I will send"), agreements ("yes, I'll handle that"), and soft commitments ("I'll try to get this to you by end of week").

Do NOT extract:
- General intentions without a specific owner ("we should probably...")
- Past actions already completed ("I sent you that yesterday")
- Hypotheticals without acceptance ("if we decide to go that route, I could...")
- Meeting agenda topics discussed without conclusion
- Questions or requests (unless the response contains a commitment)

COMMITMENT STRENGTH (Russian-specific rule):
- Perfective future tense: "сделаю", "отправлю", "подготовлю" → confidence boost +0.15
- Imperfective future: "буду делать" → lower baseline confidence
- "Постараюсь", "попробую" → weak commitment, confidence 0.3-0.4
- "Мы должны", "нам нужно" → NOT a commitment (no specific assignee)

DIRECTION LOGIC:
- direction="outgoing" if SPEAKER_ME made the commitment
- direction="incoming" if someone else committed to SPEAKER_ME
- direction="third_party" if neither side is SPEAKER_ME

OUTPUT — valid JSON only, start with {:
{
  "commitments": [
    {
      "id": 1,
      "direction": "outgoing" | "incoming" | "third_party",
      "committer_label": "...",
      "committer_name": "<from speaker_map if conf>=0.6>" | null,
      "recipient_label": "...",
      "recipient_name": "<from transcript>" | null,
      "commitment_text": "...",
      "verbatim_quote": "...",
      "timestamp": "...",
      "deadline_raw": "..." | null,
      "deadline_type": "explicit_date" | "relative_day" | "relative_week" | "relative_month" | "implied_urgent" | "none",
      "commitment_confidence": 0.0,
      "conditional": false,
      "condition_text": null
    }
  ],
  "extraction_notes": "any ambiguities encountered"
}`

// Strategy pairs an internal name with its prompt template.
type Strategy struct {
	Name        string
	DisplayName string
	Description string
	Prompt      string
}

// strategies is the ordered attempt list: each chunk is tried against
// every strategy until one yields parseable output.
var strategies = []Strategy{
	{
		Name:        "karpathy",
		DisplayName: "Simple & Reliable",
		Description: "Default. Clear rules, minimal complexity.",
		Prompt:      promptKarpathy,
	},
	{
		Name:        "murati",
		DisplayName: "Strict & Detailed",
		Description: "Fallback. More fields, stricter classification.",
		Prompt:      promptMurati,
	},
}

// ListStrategies returns the available extraction strategies for display.
func ListStrategies() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}
