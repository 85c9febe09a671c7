package store

// seedValue is one entry of the default deck inserted on first migration.
type seedValue struct {
	id    string
	label string
	desc  string
}

// defaultDeck is the standard catalog. IDs are stable so re-running the
// seed is a no-op.
var defaultDeck = []seedValue{
	{"achievement", "Achievement", "Accomplishing meaningful goals and seeing results from your effort."},
	{"adventure", "Adventure", "Seeking out new, exciting, and unfamiliar experiences."},
	{"authenticity", "Authenticity", "Being genuine and true to who you really are."},
	{"balance", "Balance", "Keeping the different parts of your life in healthy proportion."},
	{"belonging", "Belonging", "Feeling accepted as part of a group or community."},
	{"compassion", "Compassion", "Caring about the suffering of others and acting to ease it."},
	{"courage", "Courage", "Doing what is right or necessary in spite of fear."},
	{"creativity", "Creativity", "Making new things and finding original ways to solve problems."},
	{"curiosity", "Curiosity", "Wanting to learn, explore, and understand how things work."},
	{"faith", "Faith", "Trusting in something larger than yourself."},
	{"family", "Family", "Prioritizing and caring for the people closest to you."},
	{"freedom", "Freedom", "Having independence and the ability to choose your own path."},
	{"friendship", "Friendship", "Building close, supportive relationships outside of family."},
	{"generosity", "Generosity", "Giving your time, resources, and attention freely."},
	{"gratitude", "Gratitude", "Noticing and appreciating what you have."},
	{"growth", "Growth", "Continuously developing yourself and expanding what you're capable of."},
	{"health", "Health", "Taking care of your body and mind."},
	{"honesty", "Honesty", "Telling the truth and acting with transparency."},
	{"humor", "Humor", "Finding lightness and laughter in everyday life."},
	{"independence", "Independence", "Relying on yourself and standing on your own."},
	{"integrity", "Integrity", "Aligning your actions with your principles, even when no one is watching."},
	{"justice", "Justice", "Standing up for fairness and what is right."},
	{"kindness", "Kindness", "Treating others with warmth and consideration."},
	{"leadership", "Leadership", "Guiding, inspiring, and taking responsibility for others."},
	{"learning", "Learning", "Acquiring new knowledge and skills throughout life."},
	{"love", "Love", "Giving and receiving deep affection and connection."},
	{"loyalty", "Loyalty", "Staying committed to the people and causes you believe in."},
	{"openness", "Openness", "Welcoming new ideas, perspectives, and change."},
	{"optimism", "Optimism", "Expecting good outcomes and focusing on possibility."},
	{"peace", "Peace", "Seeking calm, harmony, and freedom from conflict."},
	{"recognition", "Recognition", "Being seen and appreciated for your contributions."},
	{"respect", "Respect", "Treating others with dignity and being treated the same way."},
	{"security", "Security", "Feeling safe and certain about the future."},
	{"service", "Service", "Contributing to the well-being of others and your community."},
	{"simplicity", "Simplicity", "Keeping life uncomplicated and focused on what matters."},
	{"spirituality", "Spirituality", "Connecting to meaning and purpose beyond the material."},
	{"stability", "Stability", "Maintaining a steady, predictable foundation."},
	{"success", "Success", "Reaching high standards of performance and standing."},
	{"tradition", "Tradition", "Honoring customs, rituals, and the wisdom of the past."},
	{"wisdom", "Wisdom", "Applying experience and judgment to live well."},
}
