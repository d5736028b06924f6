package services

import "time"

// Function is one of the eight cognitive-preference categories the quiz
// scores. Functions form four opposing axes; a valid preference stack never
// contains both members of an axis.
type Function string

const (
	Ni Function = "Ni"
	Ne Function = "Ne"
	Si Function = "Si"
	Se Function = "Se"
	Ti Function = "Ti"
	Te Function = "Te"
	Fi Function = "Fi"
	Fe Function = "Fe"
)

// FunctionOrder is the canonical bank order. It is also the deterministic
// tiebreak for equal scores in the classifier ranking.
var FunctionOrder = []Function{Ni, Ne, Si, Se, Ti, Te, Fi, Fe}

// Opposite maps each function to the other member of its axis.
var Opposite = map[Function]Function{
	Ne: Se, Se: Ne,
	Ni: Si, Si: Ni,
	Te: Fe, Fe: Te,
	Ti: Fi, Fi: Ti,
}

// TypeLabel is one of the sixteen four-letter type codes, or
// TypeUndetermined when no canonical stack prefix matches.
type TypeLabel string

const TypeUndetermined TypeLabel = "UNDETERMINED"

// TypeLabels lists the sixteen assignable labels in a fixed order; this is
// also the role set managed on the chat platform.
var TypeLabels = []TypeLabel{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

type stackPrefix struct{ first, second Function }

// typeByStack maps each canonical dominant/auxiliary pair to its label.
var typeByStack = map[stackPrefix]TypeLabel{
	{Ni, Te}: "INTJ", {Te, Ni}: "ENTJ",
	{Ni, Fe}: "INFJ", {Fe, Ni}: "ENFJ",
	{Si, Te}: "ISTJ", {Te, Si}: "ESTJ",
	{Si, Fe}: "ISFJ", {Fe, Si}: "ESFJ",
	{Ti, Ne}: "INTP", {Ne, Ti}: "ENTP",
	{Ti, Se}: "ISTP", {Se, Ti}: "ESTP",
	{Fi, Ne}: "INFP", {Ne, Fi}: "ENFP",
	{Fi, Se}: "ISFP", {Se, Fi}: "ESFP",
}

// QuestionPair carries the two phrasings of one question. Both phrasings
// score the same; switching between them never touches session state.
// On the wire a pair is a two-element array [evocative, plain].
type QuestionPair struct {
	Evocative string
	Plain     string
}

// BankQuestion is one entry of a session's shuffled question sequence.
type BankQuestion struct {
	Function Function     `json:"function"`
	Pair     QuestionPair `json:"pair"`
}

// Session is the in-memory state of one user's quiz run. It is created on
// start, mutated only by accepted answers, and removed at finalization.
type Session struct {
	UserID    string
	GroupID   string
	Questions []BankQuestion
	Cursor    int
	Scores    map[Function]int
	StartedAt time.Time
}

// Wording selects which phrasing of the current question is displayed.
type Wording string

const (
	WordingEvocative Wording = "evocative"
	WordingPlain     Wording = "plain"
)

// PromptOption is one of the five discrete answer actions. Cursor and Score
// are captured at construction so a late press still names the question it
// was rendered for.
type PromptOption struct {
	Cursor int `json:"cursor"`
	Score  int `json:"score"`
}

// Prompt is one rendered question: text in the requested wording, the five
// score options, and the toggle target for the other wording.
type Prompt struct {
	Cursor     int            `json:"cursor"`
	Total      int            `json:"total"`
	Function   Function       `json:"-"`
	Wording    Wording        `json:"wording"`
	Text       string         `json:"text"`
	AltWording Wording        `json:"alt_wording"`
	Options    []PromptOption `json:"options"`
}

// AnswerAck echoes an accepted answer back to the user.
type AnswerAck struct {
	Cursor   int    `json:"cursor"`
	Total    int    `json:"total"`
	Score    int    `json:"score"`
	Question string `json:"question"`
}

// RoleCount is one row of a group's type distribution table.
type RoleCount struct {
	Label TypeLabel `json:"label"`
	Count int       `json:"count"`
}

// Report is the final deliverable of a completed session.
type Report struct {
	Label               TypeLabel   `json:"label"`
	LabelDescription    string      `json:"label_description"`
	Dominant            Function    `json:"dominant"`
	DominantDescription string      `json:"dominant_description"`
	Stack               []Function  `json:"stack"`
	Ranking             []Function  `json:"ranking"`
	Distribution        []RoleCount `json:"distribution,omitempty"`
}

// AuditEntry records an administrative action against the ledger.
type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}

// typeDescriptions holds the canned result text per label. The undetermined
// sentinel deliberately has no entry; the reporter falls back to neutral
// text instead of inventing a label.
var typeDescriptions = map[TypeLabel]string{
	"INTJ": "You see far ahead and hold to your principles: the quiet architect.",
	"INTP": "You chase truth with rigor and curiosity: the explorer of ideas.",
	"ENTJ": "You command the future and drive action with reason: the born marshal.",
	"ENTP": "You spar with every premise and invent without pause: the restless debater.",
	"INFJ": "You carry deep intuition and gentle ideals: the keeper of visions.",
	"INFP": "Your inner world is a poem, tender yet unyielding: the healer of souls.",
	"ENFJ": "You lead by caring, the warm center of every circle: the mentor.",
	"ENFP": "You brim with imagination and enthusiasm: the wide-eyed campaigner.",
	"ISTJ": "You are exacting and dependable: the steward of order and duty.",
	"ISFJ": "You are gentle and attentive: the shelter of tradition and care.",
	"ESTJ": "You are pragmatic and firm: the executor of plans and rules.",
	"ESFJ": "You look after everyone in the room: the guardian of the group.",
	"ISTP": "You are calm and deft: the engineer who takes problems apart.",
	"ISFP": "You are quiet and free: the artist at home in the natural world.",
	"ESTP": "You are decisive and quick: the improviser who thrives on the spot.",
	"ESFP": "You radiate energy: the performer at the center of life's stage.",
}

// functionDescriptions describes the dominant function in the report.
var functionDescriptions = map[Function]string{
	Fi: "You hold a strong inner compass of values and live by it.",
	Fe: "You read and tune the emotional current of any group.",
	Ti: "You wield logic like a blade, dissecting every structure.",
	Te: "You reshape reality through planning and efficiency.",
	Ni: "You watch the future, sensing truths before they take form.",
	Ne: "Ideas strike you like sparks, one possibility igniting the next.",
	Si: "You treasure the past and trust the world through memory.",
	Se: "You live in the present, alert to every real sensation.",
}
