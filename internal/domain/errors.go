package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El motor de inventario siempre devuelve alguno de estos envuelto con %w;
// los adaptadores HTTP los traducen a códigos de estado con errors.Is.
var (
	ErrInvalidArgument    = errors.New("argumento inválido")
	ErrProductNotFound    = errors.New("producto no encontrado")
	ErrRecordNotFound     = errors.New("registro de inventario no encontrado")
	ErrMovementNotFound   = errors.New("movimiento no encontrado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrDuplicateRecord    = errors.New("ya existe inventario para este producto y tienda")
	ErrContention         = errors.New("contención: reintentos agotados")
	ErrTransferAborted    = errors.New("traslado abortado y compensado")
	ErrStorageUnavailable = errors.New("almacenamiento no disponible")
)

// ErrVersionConflict lo devuelven los repositorios cuando una escritura condicional
// encuentra una versión distinta a la leída. Es interno: el motor lo convierte en
// reintento o en ErrContention.
var ErrVersionConflict = errors.New("conflicto de versión")
