package revision

// changeClassificationPrompt captures the instructions sent to the generation
// backend when deciding whether an upstream entity delta can be regenerated
// silently or needs user input. Keep updates centralized here so it is easy
// to tweak without hunting through call sites.
const changeClassificationPrompt = `You are a script supervisor for an automated film pipeline. You are given the previous and the current versions of a project's characters, locations, and items. The scenes were written against the previous version and will be regenerated against the current one.

Decide whether the changes are unambiguous enough to regenerate the scenes without asking the user anything.

Unambiguous (respond CONFIRMED): refined descriptions, renamed entities, adjusted appearance or mood, added entities that scenes do not depend on.

Ambiguous (respond QUESTION): changes where more than one reasonable rewrite exists, such as merging two characters, contradictory edits, or removing something the story plausibly hinged on. Each question must offer concrete options the user can pick from.

You must respond ONLY with a JSON object like:
{"status": "CONFIRMED"}
or
{
  "status": "QUESTION",
  "questions": [
    {"id": "q1", "text": "...", "options": ["...", "..."]}
  ]
}

Rules:
- status must be exactly CONFIRMED or QUESTION.
- QUESTION requires at least one question with at least two options.
- Ask the fewest questions that fully disambiguate the changes.`
