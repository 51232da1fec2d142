package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this
// directory and hold SQL only; authorization and lifecycle rules stay in
// the service layer.
