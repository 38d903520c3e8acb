// Package pipeline orchestrates the multi-stage AI analysis of campaign
// documents.
//
// A document moves through seven ordered stages (metadata, classification,
// entity extraction, text extraction, design elements, keyword extraction,
// communication focus), each a single structured model call whose validated
// output is persisted before the next stage starts. Later stages receive a
// digest of earlier outputs as prompt context, so the order is fixed.
//
// Failed stage attempts are retried with exponential backoff; a stage that
// exhausts its retries fails the document with the stage name recorded in
// the error reason, keeping all earlier stage outputs so a later run can
// resume where it stopped. Each document is owned by at most one invocation
// at a time, and in-flight invocations can be cancelled between stages.
package pipeline
