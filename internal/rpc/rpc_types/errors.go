package rpc_types

// RpcError represents an RPC error with code and message
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Error codes
const (
	// Universal errors
	RpcUNKNOWN          = -1
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603

	// General purpose errors
	RpcMISSING_COMMAND   = 2
	RpcCOMMAND_UNTRUSTED = 3
	RpcSLOW_DOWN         = 7

	// Transaction errors
	RpcTXN_NOT_FOUND = 24

	// Account errors
	RpcACT_MALFORMED = 50

	// Feature errors
	RpcNOT_ENABLED = 31

	// Object errors
	RpcOBJECT_NOT_FOUND = 92
)

// NewRpcError creates an error
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorMissingCommand() *RpcError {
	return NewRpcError(RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing method field")
}

func RpcErrorUntrusted(method string) *RpcError {
	return NewRpcError(RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted", "Method '"+method+"' requires admin access")
}

func RpcErrorSlowDown() *RpcError {
	return NewRpcError(RpcSLOW_DOWN, "slowDown", "slowDown", "You are placing too much load on the server.")
}

func RpcErrorTxnNotFound(message string) *RpcError {
	return NewRpcError(RpcTXN_NOT_FOUND, "txnNotFound", "txnNotFound", message)
}

func RpcErrorActMalformed(message string) *RpcError {
	return NewRpcError(RpcACT_MALFORMED, "actMalformed", "actMalformed", message)
}

func RpcErrorObjectNotFound(message string) *RpcError {
	return NewRpcError(RpcOBJECT_NOT_FOUND, "objectNotFound", "objectNotFound", message)
}

func RpcErrorNotEnabled(message string) *RpcError {
	return NewRpcError(RpcNOT_ENABLED, "notEnabled", "notEnabled", message)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}
