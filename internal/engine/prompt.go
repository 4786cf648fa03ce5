package engine

// LLM prompt templates — data only, no logic.

// noInfoAnswer is the fixed response when retrieval finds nothing above the
// relevance threshold. Returned verbatim, never sent through the LLM.
const noInfoAnswer = "I'm sorry, I don't have information on that."

// answerPrompt composes a grounded answer from transcript excerpts and the
// running conversation. Args: current date, conversation section, question,
// excerpts.
const answerPrompt = `You are an assistant answering questions about a library of video transcripts.
Answer the question using ONLY the transcript excerpts below.

Current date: %s

Rules:
- Plain text, 2-5 sentences. No markdown.
- Use the conversation history to resolve references like "he", "that video" or "the previous topic".
- Do NOT invent information not present in the excerpts.
- If the excerpts do not answer the question, say "` + noInfoAnswer + `"
- Answer in the SAME LANGUAGE as the question.

%sQuestion: %s

Transcript excerpts:
%s`

// conversationSection wraps prior turns for the answer prompt. Args: rendered turns.
const conversationSection = `Conversation so far:
%s

`

// expandQueryPrompt generates semantically diverse retrieval query variants.
// Args: n, n, question.
const expandQueryPrompt = `Generate %d alternative phrasings of the following question for semantic search
over video transcripts. Each variant should target the same information need from a
different angle. Ensure the variants specifically discuss the topic without unrelated content.

Respond with a JSON array of %d strings only — no markdown, no explanation.

Question: %s`
