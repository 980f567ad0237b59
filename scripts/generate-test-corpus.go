//go:build ignore

// Package main generates synthetic test corpus for benchmarking the
// chunkers and walker against a large tree of Rust, TypeScript, and
// Markdown files - the three languages crateindex actually chunks.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Language templates for realistic code generation.
var rustTemplate = `//! %s module for %s functionality.

use std::collections::HashMap;
use std::time::Instant;

/// Configuration for %s.
#[derive(Debug, Clone)]
pub struct %sConfig {
    pub name: String,
    pub enabled: bool,
    pub timeout_secs: u64,
}

/// %s provides %s capabilities.
pub struct %s {
    config: %sConfig,
    cache: HashMap<String, String>,
    started_at: Instant,
}

impl %s {
    /// Creates a new %s instance.
    pub fn new(config: %sConfig) -> Self {
        Self {
            config,
            cache: HashMap::new(),
            started_at: Instant::now(),
        }
    }

    /// %s performs the main operation.
    pub fn %s(&mut self, input: &str) -> Result<String, String> {
        if input.is_empty() {
            return Err("input must not be empty".to_string());
        }
        let result = format!("processed: {} by {}", input, self.config.name);
        self.cache.insert(input.to_string(), result.clone());
        Ok(result)
    }

    /// Returns the number of cached entries.
    pub fn cache_len(&self) -> usize {
        self.cache.len()
    }
}

#[cfg(test)]
mod tests {
    use super::*;

    #[test]
    fn test_%s_processes_input() {
        let config = %sConfig { name: "%s".to_string(), enabled: true, timeout_secs: 30 };
        let mut handler = %s::new(config);
        assert!(handler.%s("hello").is_ok());
    }
}
`

var tsTemplate = `import { useState, useEffect, useCallback } from 'react';

interface %sProps {
  id: string;
  name: string;
  onUpdate?: (data: %sData) => void;
}

interface %sData {
  value: string;
  timestamp: number;
  metadata: Record<string, unknown>;
}

/**
 * %s component for %s functionality.
 */
export function %s({ id, name, onUpdate }: %sProps): JSX.Element {
  const [data, setData] = useState<%sData | null>(null);
  const [loading, setLoading] = useState(false);
  const [error, setError] = useState<Error | null>(null);

  const fetch%s = useCallback(async () => {
    setLoading(true);
    try {
      const response = await fetch('/api/%s/' + id);
      const result = await response.json();
      setData(result);
      onUpdate?.(result);
    } catch (e) {
      setError(e instanceof Error ? e : new Error('Unknown error'));
    } finally {
      setLoading(false);
    }
  }, [id, onUpdate]);

  useEffect(() => {
    fetch%s();
  }, [fetch%s]);

  if (loading) return <div>Loading %s...</div>;
  if (error) return <div>Error: {error.message}</div>;
  if (!data) return <div>No data</div>;

  return (
    <div className="%s-container">
      <h2>{name}</h2>
      <p>ID: {id}</p>
      <pre>{JSON.stringify(data, null, 2)}</pre>
    </div>
  );
}

export default %s;
`

var mdTemplate = `# %s

## Overview

%s provides comprehensive %s functionality for modern applications.

## Features

- **Fast Processing**: Optimized for performance
- **Type Safety**: Strongly typed public API
- **Extensible**: Plugin architecture
- **Well Documented**: Comprehensive API docs

## Installation

` + "```bash" + `
cargo add %s
` + "```" + `

## Quick Start

` + "```rust" + `
use %s::%s;

fn main() {
    let client = %s::new(Default::default());
    let result = client.process("input").unwrap();
    println!("{}", result);
}
` + "```" + `

## Configuration

| Option | Type | Default | Description |
|--------|------|---------|-------------|
| timeout_secs | u64 | 30 | Request timeout in seconds |
| retries | u32 | 3 | Number of retry attempts |
| enabled | bool | true | Enable the handler |

## API Reference

### %s::new(config)

Creates a new %s instance.

**Parameters:**
- ` + "`config`" + ` - Configuration options

**Returns:** %s instance

### %s.process(data)

Processes the input data.

**Parameters:**
- ` + "`data`" + ` - Input data to process

**Returns:** Processed result

## Contributing

See [CONTRIBUTING.md](CONTRIBUTING.md) for guidelines.

## License

MIT License - see [LICENSE](LICENSE) for details.
`

// Word pools for generating realistic names.
var (
	nouns = []string{
		"Handler", "Manager", "Service", "Controller", "Processor",
		"Engine", "Client", "Server", "Worker", "Factory",
		"Builder", "Parser", "Validator", "Formatter", "Converter",
		"Cache", "Store", "Queue", "Pool", "Buffer",
		"Router", "Dispatcher", "Scheduler", "Monitor", "Logger",
		"Auth", "Session", "Token", "Config",
		"Data", "Event", "Message", "Request", "Response",
	}
	verbs = []string{
		"process", "handle", "execute", "run", "start",
		"stop", "create", "delete", "update", "read",
		"parse", "format", "validate", "convert", "transform",
		"send", "receive", "fetch", "store", "cache",
	}
	domains = []string{
		"authentication", "authorization", "caching", "logging", "monitoring",
		"messaging", "scheduling", "routing", "parsing", "validation",
		"serialization", "compression", "encryption", "hashing", "indexing",
		"searching", "filtering", "sorting", "pagination", "batching",
	}
)

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	subdirs := []string{"rust", "typescript", "docs"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	rustFiles := *numFiles * 50 / 100 // 50% Rust
	tsFiles := *numFiles * 30 / 100   // 30% TypeScript
	mdFiles := *numFiles - rustFiles - tsFiles // ~20% Markdown

	generated := 0

	for i := 0; i < rustFiles; i++ {
		if err := generateRustFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating Rust file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < tsFiles; i++ {
		if err := generateTSFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating TS file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < mdFiles; i++ {
		if err := generateMDFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating MD file %d: %v\n", i, err)
		}
		generated++
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func generateRustFile(index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)
	verb := randomWord(verbs)
	snake := fmt.Sprintf("%s_%d", verb, index)

	content := fmt.Sprintf(rustTemplate,
		noun, domain,
		noun,
		noun,
		noun, domain, noun, noun,
		noun, noun, noun,
		noun, verb,
		snake, noun, noun, noun, verb,
	)

	filename := filepath.Join(*outputDir, "rust", fmt.Sprintf("%s_%d.rs", verb, index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateTSFile(index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)

	content := fmt.Sprintf(tsTemplate,
		noun, noun, noun,
		noun, domain, noun, noun, noun,
		noun, noun,
		noun, noun, noun,
		noun, noun,
	)

	filename := filepath.Join(*outputDir, "typescript", fmt.Sprintf("%s%d.tsx", noun, index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateMDFile(index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)

	content := fmt.Sprintf(mdTemplate,
		noun,
		noun, domain,
		noun,
		noun, noun, noun,
		noun, noun, noun,
		noun,
	)

	filename := filepath.Join(*outputDir, "docs", fmt.Sprintf("%s_%d.md", noun, index))
	return os.WriteFile(filename, []byte(content), 0644)
}
