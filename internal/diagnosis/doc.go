// Package diagnosis turns untrusted model output into a safe, UI-stable Diagnosis.
//
// The stages run strictly in order: Extract recovers a JSON object from free text,
// AdaptLegacy flattens older nested schemas, the Normalizer coerces every field to
// its canonical type with a documented default, and the Engine applies the safety
// decision tables (traffic light, expert escalation, fertilizer permission,
// alternatives filter). None of the stages return errors.
package diagnosis
