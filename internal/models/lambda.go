package models

import "time"

// LambdaFunctionInfo represents a Lambda function's configuration as
// returned by the inventory scan.
type LambdaFunctionInfo struct {
	FunctionName        string     // Lambda function name
	Runtime             string     // Runtime (e.g., nodejs16.x, python3.9)
	Region              string     // AWS region
	MemorySize          int32      // Memory allocation in MB
	Timeout             int32      // Function timeout in seconds
	ReservedConcurrency *int32     // Reserved concurrent executions, nil if unset
	LastModified        *time.Time // Last modification time
}
