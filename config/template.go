package config

const defaultYaml = `env: "dev"
log_level: "info" # debug, info, warn, error
log_type: "text" # text, json
service_name: "resultfetch"
version: "1.0.0"

portal:
  url: "https://sbtet.ap.gov.in/APSBTET/gradeWiseResults.do"
  mechanism: "browser" # browser, http
  pin_input_id: "hno"
  semester_select_id: "grade1"
  submit_selector: "//input[@value='Get Result']"
  result_container_id: "printDiv"
  error_indicator: "No Records Found"
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"
  request_timeout: 15s
  semesters:
    - "1YEAR"
    - "2SEM"
    - "3SEM"
    - "4SEM"
    - "5SEM"
    - "6SEM"
    - "7SEM"

worker:
  max_workers: 5
  retry_attempts: 2 # extra attempts after the first, timeouts and navigation errors only
  retry_delay: 2s # doubles after each retry
  pin_digit_budget: 6

report:
  output_dir: "downloads"
  excel: true
  pdf: true
  zip: false
  top_performers: 10

cache:
  enabled: false
  backend: "memory" # memory, memcached
  servers: "localhost:11211"
  ttl_for_record: 24h

history:
  enabled: true
  path: "resultfetch.db"

s3:
  enabled: false
  aws_access_key: ""
  aws_secret_key: ""
  aws_base_endpoint: "" # set for localstack
  region: "ap-south-1"
  bucket_name: ""
  key_prefix: "results"

kafka:
  consumer:
    read_topic_name: "fetch-tasks"
    brokers: "localhost:9092"
    group_id: "resultfetch-group"
    max_wait: 3s
    read_batch_timeout: 5s
  producer:
    addr: "localhost:9092"
    write_topic_name: "fetch-results"
    max_attempts: 3
    batch_size: 100
    batch_timeout: 1s
    read_timeout: 10s
    write_timeout: 10s
    required_acks: 1
    async: false

metrics:
  enabled: false
  port: "9090"
`
