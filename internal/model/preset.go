package model

import "errors"

// ErrUnknownPreset is returned when a preset name is not defined.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a predefined quick-start template.
type Preset struct {
	Name         string `json:"name"`
	Tone         Tone   `json:"tone"`
	Purpose      string `json:"purpose"`
	BodyTemplate string `json:"body_template"`
}

var presets = []Preset{
	{
		Name:    "Job Application",
		Tone:    ToneProfessional,
		Purpose: "Apply for an open position and highlight relevant experience",
		BodyTemplate: "Introduce yourself and the role you are applying for.\n" +
			"Summarize two or three accomplishments that match the job requirements.\n" +
			"Explain why you are interested in the company.\n" +
			"Close by requesting an interview and thanking the reader.",
	},
	{
		Name:    "Follow-Up Email",
		Tone:    ToneFriendly,
		Purpose: "Follow up on a previous conversation or unanswered message",
		BodyTemplate: "Reference the earlier conversation and its date.\n" +
			"Restate the open question or next step briefly.\n" +
			"Offer any additional information that may help.\n" +
			"Suggest a concrete next action and timeframe.",
	},
	{
		Name:    "Thank You Note",
		Tone:    ToneSympathetic,
		Purpose: "Express gratitude for help, a meeting, or an opportunity",
		BodyTemplate: "Thank the recipient for the specific thing they did.\n" +
			"Describe the impact it had.\n" +
			"Mention how you hope to stay in touch or reciprocate.",
	},
	{
		Name:    "Sales Pitch",
		Tone:    TonePersuasive,
		Purpose: "Introduce a product or service and invite the recipient to learn more",
		BodyTemplate: "Open with a problem the recipient likely faces.\n" +
			"Present the product or service as the solution with one key benefit.\n" +
			"Add a short proof point such as a customer result.\n" +
			"End with a clear call to action.",
	},
	{
		Name:    "Networking Request",
		Tone:    ToneCasual,
		Purpose: "Ask to connect and learn from someone in your field",
		BodyTemplate: "Explain how you found the recipient and what you admire about their work.\n" +
			"Share a sentence about your own background.\n" +
			"Ask for a short call or coffee chat at their convenience.",
	},
}

// Presets returns the static presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, ErrUnknownPreset
}
