package engine

import "math/rand/v2"

type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Options []QuizOption `json:"options"`
	Answer  string       `json:"-"`
}

// The bank keeps everyone at the table busy on their phone while the cult acts, so it
// only needs to be plausible, not hard.
var questionBank = []Question{
	{ID: "q-knots", Prompt: "Which knot is called the king of knots?", Answer: "b", Options: []QuizOption{
		{ID: "a", Text: "Reef knot"}, {ID: "b", Text: "Bowline"}, {ID: "c", Text: "Sheet bend"}, {ID: "d", Text: "Clove hitch"},
	}},
	{ID: "q-port", Prompt: "Which side of a ship is port?", Answer: "a", Options: []QuizOption{
		{ID: "a", Text: "Left"}, {ID: "b", Text: "Right"}, {ID: "c", Text: "Front"}, {ID: "d", Text: "Back"},
	}},
	{ID: "q-kraken", Prompt: "In which sea does the Kraken of legend live?", Answer: "c", Options: []QuizOption{
		{ID: "a", Text: "Caribbean Sea"}, {ID: "b", Text: "Red Sea"}, {ID: "c", Text: "Norwegian Sea"}, {ID: "d", Text: "Dead Sea"},
	}},
	{ID: "q-bow", Prompt: "What is the front of a ship called?", Answer: "d", Options: []QuizOption{
		{ID: "a", Text: "Stern"}, {ID: "b", Text: "Keel"}, {ID: "c", Text: "Mast"}, {ID: "d", Text: "Bow"},
	}},
	{ID: "q-knot-speed", Prompt: "One knot is one nautical mile per ...?", Answer: "a", Options: []QuizOption{
		{ID: "a", Text: "Hour"}, {ID: "b", Text: "Minute"}, {ID: "c", Text: "Watch"}, {ID: "d", Text: "Day"},
	}},
	{ID: "q-blackbeard", Prompt: "What was Blackbeard's ship called?", Answer: "b", Options: []QuizOption{
		{ID: "a", Text: "Golden Hind"}, {ID: "b", Text: "Queen Anne's Revenge"}, {ID: "c", Text: "Black Pearl"}, {ID: "d", Text: "Endeavour"},
	}},
	{ID: "q-crowsnest", Prompt: "Where is the crow's nest?", Answer: "c", Options: []QuizOption{
		{ID: "a", Text: "Below deck"}, {ID: "b", Text: "On the bowsprit"}, {ID: "c", Text: "Up the mast"}, {ID: "d", Text: "In the galley"},
	}},
	{ID: "q-galley", Prompt: "What is a ship's kitchen called?", Answer: "a", Options: []QuizOption{
		{ID: "a", Text: "Galley"}, {ID: "b", Text: "Brig"}, {ID: "c", Text: "Hold"}, {ID: "d", Text: "Bilge"},
	}},
	{ID: "q-brig", Prompt: "What is the brig used for?", Answer: "d", Options: []QuizOption{
		{ID: "a", Text: "Storing rum"}, {ID: "b", Text: "Navigation"}, {ID: "c", Text: "Sleeping"}, {ID: "d", Text: "Locking up prisoners"},
	}},
	{ID: "q-tentacles", Prompt: "How many arms does an octopus have?", Answer: "c", Options: []QuizOption{
		{ID: "a", Text: "Six"}, {ID: "b", Text: "Ten"}, {ID: "c", Text: "Eight"}, {ID: "d", Text: "Twelve"},
	}},
	{ID: "q-jolly", Prompt: "What is the Jolly Roger?", Answer: "b", Options: []QuizOption{
		{ID: "a", Text: "A sea shanty"}, {ID: "b", Text: "A pirate flag"}, {ID: "c", Text: "A cannon"}, {ID: "d", Text: "A rum ration"},
	}},
	{ID: "q-sextant", Prompt: "What does a sextant measure?", Answer: "a", Options: []QuizOption{
		{ID: "a", Text: "Angles to celestial bodies"}, {ID: "b", Text: "Water depth"}, {ID: "c", Text: "Wind speed"}, {ID: "d", Text: "Hull damage"},
	}},
}

// QuestionByID looks a question up for rendering; the answer field is never serialised.
func QuestionByID(id string) (Question, bool) {
	for _, q := range questionBank {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuizRound assigns one question per participant and records answers by option id.
type QuizRound struct {
	Questions map[string]string `json:"questions"` // playerId -> questionId
	Answers   map[string]string `json:"answers"`   // playerId -> optionId
}

func newQuiz(participants []string, rng *rand.Rand) QuizRound {
	q := QuizRound{Questions: map[string]string{}, Answers: map[string]string{}}
	for _, id := range participants {
		q.Questions[id] = questionBank[rng.IntN(len(questionBank))].ID
	}
	return q
}

func (q *QuizRound) answer(player, option string) error {
	qid, ok := q.Questions[player]
	if !ok {
		return ErrNotParticipant
	}
	if _, done := q.Answers[player]; done {
		return ErrAlreadySubmitted
	}
	question, _ := QuestionByID(qid)
	for _, o := range question.Options {
		if o.ID == option {
			if q.Answers == nil {
				q.Answers = map[string]string{}
			}
			q.Answers[player] = option
			return nil
		}
	}
	return ErrUnknownOption.With("option", option)
}

func (q QuizRound) allAnswered() bool {
	return len(q.Answers) >= len(q.Questions)
}

// correct lists players who answered right, in roster order. Non-responders count as wrong.
func (q QuizRound) correct(s *State) []string {
	return inRosterOrder(s, func(id string) bool {
		qid, ok := q.Questions[id]
		if !ok {
			return false
		}
		question, _ := QuestionByID(qid)
		return q.Answers[id] == question.Answer
	})
}

func (q QuizRound) clone() QuizRound {
	return QuizRound{Questions: cloneMap(q.Questions), Answers: cloneMap(q.Answers)}
}
