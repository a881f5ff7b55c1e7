package compliance

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	dErrors "tokengate/pkg/domain-errors"
)

// ComplianceCheckFailedError is returned when a registered module rejects a
// transfer. Message is the module's human-readable reason.
type ComplianceCheckFailedError struct {
	Module  common.Address
	Name    string
	Message string
}

func (e *ComplianceCheckFailedError) Error() string {
	return fmt.Sprintf("compliance check failed (%s): %s", e.Name, e.Message)
}
func (e *ComplianceCheckFailedError) ErrorCode() dErrors.Code { return dErrors.CodeComplianceRejected }
func (e *ComplianceCheckFailedError) Reason() string          { return "ComplianceCheckFailed" }

type ModuleAlreadyAddedError struct {
	Module common.Address
}

func (e *ModuleAlreadyAddedError) Error() string {
	return fmt.Sprintf("module %s already added", e.Module.Hex())
}
func (e *ModuleAlreadyAddedError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *ModuleAlreadyAddedError) Reason() string          { return "ModuleAlreadyAdded" }

type ModuleNotFoundError struct {
	Module common.Address
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module %s not found", e.Module.Hex())
}
func (e *ModuleNotFoundError) ErrorCode() dErrors.Code { return dErrors.CodeNotFound }
func (e *ModuleNotFoundError) Reason() string          { return "ModuleNotFound" }

// InvalidModuleImplementationError means nothing implementing Module is
// deployed at the address.
type InvalidModuleImplementationError struct {
	Module common.Address
}

func (e *InvalidModuleImplementationError) Error() string {
	return fmt.Sprintf("address %s is not a compliance module", e.Module.Hex())
}
func (e *InvalidModuleImplementationError) ErrorCode() dErrors.Code { return dErrors.CodeValidation }
func (e *InvalidModuleImplementationError) Reason() string          { return "InvalidModuleImplementation" }

// InvalidParametersError wraps the decode failure reported by ValidateParameters.
type InvalidParametersError struct {
	Module common.Address
	Err    error
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid parameters for module %s: %v", e.Module.Hex(), e.Err)
}
func (e *InvalidParametersError) Unwrap() error           { return e.Err }
func (e *InvalidParametersError) ErrorCode() dErrors.Code { return dErrors.CodeValidation }
func (e *InvalidParametersError) Reason() string          { return "InvalidParameters" }

// HookFailedError reports a lifecycle hook that aborted an operation.
type HookFailedError struct {
	Module common.Address
	Hook   string
	Err    error
}

func (e *HookFailedError) Error() string {
	return fmt.Sprintf("module %s %s hook failed: %v", e.Module.Hex(), e.Hook, e.Err)
}
func (e *HookFailedError) Unwrap() error           { return e.Err }
func (e *HookFailedError) ErrorCode() dErrors.Code { return dErrors.CodeOf(e.Err) }
func (e *HookFailedError) Reason() string          { return "ComplianceHookFailed" }
