package debate

import (
	"fmt"
	"strings"
)

func evidencePrompt(query, document string) string {
	return fmt.Sprintf(`You are an agent reading a single document to answer the user question.

Question: %s
Document: %s
Only use the document. If the document does not contain an answer, say so. Provide a short answer and a brief explanation.
Format: Answer: <answer>. Explanation: <why>.`, query, document)
}

func ambiguityPrompt(query string, responses []string) string {
	return fmt.Sprintf(`You detect ambiguity versus factual conflict in answers.

Question: %s
Responses: %s
If answers conflict, suggest clarification questions or guidance to disambiguate. If the question is ambiguous, list the plausible interpretations.
Format: Guidance: <guidance>. Questions: <questions>.`, query, strings.Join(responses, "\n"))
}

func debatePrompt(query, document string, responses []string, guidance string) string {
	return fmt.Sprintf(`You are an agent refining your answer using peer responses and ambiguity guidance.

Question: %s
Document: %s
Peer responses: %s
Ambiguity guidance: %s
Only use the document and the provided responses. Clarify what you are referring to.
Format: Answer: <answer>. Explanation: <why>.`, query, document, strings.Join(responses, "\n"), guidance)
}

func synthesisPrompt(query string, responses []string) string {
	return fmt.Sprintf(`You synthesize a final answer based only on the provided responses.

Question: %s
Responses: %s
If answers disagree because the question is ambiguous, list all valid answers and ask the user to clarify.
Format: Final Answer: <answer>.`, query, strings.Join(responses, "\n"))
}
