package apperror

import "errors"

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrNoLegalMove = errors.New("no legal move: round is already finished")
	ErrNotYourTurn = errors.New("it's not your turn")
	ErrUnknownMode = errors.New("unknown round mode")
	ErrInvalidMark = errors.New("invalid mark")
)
