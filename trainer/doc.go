// Package trainer provides high-level training orchestration for translation models.
// It drives epochs of token budgeted batches through a model and optimizer, reports
// running statistics, and keeps the checkpoint with the best validation BLEU.
package trainer
