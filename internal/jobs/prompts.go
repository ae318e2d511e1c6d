package jobs

import (
	"fmt"
	"sort"
	"strings"

	"researchd/internal/domain"
	"researchd/internal/llm"
	"researchd/internal/pattern"
)

// maxContextChars caps how much document text is inlined into a prompt.
// Long papers are cut at a whitespace boundary near the cap.
const maxContextChars = 24000

// taskInstructions maps document task types to their TASK section.
var taskInstructions = map[domain.TaskType]string{
	domain.TaskShortSummary: "Write a concise summary of the document in at most 200 words. " +
		"Cover the main claim, the method and the key result. Plain prose, no headings, no bullet lists.",
	domain.TaskLongSummary: "Write a detailed summary of the document. Structure it with an introduction, " +
		"one section per major topic and a closing paragraph on limitations and open questions. " +
		"Preserve the document's terminology.",
	domain.TaskResearchSummary: "Write a structured research summary of the document with these sections: " +
		"Problem Statement, Methodology, Key Findings, Significance, Limitations. " +
		"Be precise about quantitative results and cite section or figure references where the document provides them.",
	domain.TaskMathProof: "Reconstruct the main mathematical argument of the document as a rigorous proof. " +
		"State every definition and lemma you rely on, then give the proof in numbered steps. " +
		"Use LaTeX notation for all mathematical expressions.",
	domain.TaskPromptDraft: "Draft a reusable prompt that would instruct a language model to analyze documents " +
		"like this one. Capture the document's domain, the analysis depth shown and the expected output shape. " +
		"Output only the drafted prompt text.",
}

// outputConstraints appends task-specific format guidance.
var outputConstraints = map[domain.TaskType]string{
	domain.TaskMathProof:       "Output valid LaTeX body content only, without a preamble.",
	domain.TaskResearchSummary: "Use the exact section names given above as headings.",
}

// documentPayload builds the dispatch payload for a document task. extra
// carries caller instructions appended to the TASK section.
func documentPayload(task domain.TaskType, title, content, extra string) (llm.Payload, error) {
	instruction, ok := taskInstructions[task]
	if !ok {
		return llm.Payload{}, fmt.Errorf("%w: %q has no document prompt", domain.ErrInvalidTask, task)
	}

	sb := &strings.Builder{}
	sb.WriteString("ROLE\nYou are a careful research assistant. You only use information present in the provided document.\n\n")
	sb.WriteString("CONTEXT\n")
	if title != "" {
		fmt.Fprintf(sb, "Document title: %s\n", title)
	}
	sb.WriteString("Document text:\n\"\"\"\n")
	sb.WriteString(truncateAtWord(content, maxContextChars))
	sb.WriteString("\n\"\"\"\n\n")
	sb.WriteString("TASK\n")
	sb.WriteString(instruction)
	if extra = strings.TrimSpace(extra); extra != "" {
		sb.WriteString("\n\nAdditional instructions from the requester:\n")
		sb.WriteString(extra)
	}
	if constraint, ok := outputConstraints[task]; ok {
		sb.WriteString("\n\nCONSTRAINTS\n")
		sb.WriteString(constraint)
	}

	return llm.Payload{
		System: "You write faithful, well-structured analyses of academic and technical documents.",
		Prompt: sb.String(),
	}, nil
}

// builderPayload wraps a composed prompt into the meta-prompt sent to the
// model. The composed text travels verbatim; the framing asks the model to
// refine it into a single production-ready prompt.
func builderPayload(composed *pattern.ComposedPrompt) llm.Payload {
	sb := &strings.Builder{}
	sb.WriteString("You are given a set of prompt pattern segments with their slots already filled in.\n")
	sb.WriteString("Merge them into one coherent, production-ready prompt. Keep every constraint the segments express, ")
	sb.WriteString("remove the segment headers and separators, and resolve redundancy without dropping intent.\n")

	if len(composed.Tags) > 0 {
		sb.WriteString("\nSupplied context values:\n")
		names := make([]string, 0, len(composed.Tags))
		for name := range composed.Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(sb, "- %s: %s\n", name, composed.Tags[name])
		}
	}

	sb.WriteString("\nPattern segments:\n\"\"\"\n")
	sb.WriteString(composed.Text)
	sb.WriteString("\n\"\"\"\n\nOutput only the final merged prompt text.")

	// The Ask for Input pattern is only effective if the merged prompt
	// keeps its blocking behavior, so it gets an explicit reminder.
	for _, name := range composed.Patterns {
		if name == "Ask for Input" {
			sb.WriteString("\nThe merged prompt must still refuse to produce the deliverable until the labeled input has been provided.")
			break
		}
	}

	return llm.Payload{
		System: "You are an expert prompt engineer. You produce a single final prompt and nothing else.",
		Prompt: sb.String(),
	}
}

// truncateAtWord cuts s at the last whitespace before limit.
func truncateAtWord(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n[document truncated]"
}
