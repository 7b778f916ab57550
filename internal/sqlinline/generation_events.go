package sqlinline

const QInsertGenerationEvent = `--sql 3c1a9d74-5b02-4e8f-9a66-0d2f4c7b81e5
insert into generation_events (id, kind, outcome, session_id, model, elapsed_ms, created_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::bigint, now());
`

const QStatsSummary = `--sql 9b7e2f10-8c44-4d2a-b5f1-6e3a0d9c42a8
select
  count(*) filter (where kind = 'composite' and outcome = 'succeeded'),
  count(*) filter (where kind = 'composite' and outcome <> 'succeeded'),
  count(*) filter (where kind = 'animation' and outcome = 'succeeded'),
  count(*) filter (where kind = 'animation' and outcome <> 'succeeded'),
  count(*) filter (where kind = 'composite' and created_at >= now() - interval '24 hours'),
  count(*) filter (where kind = 'animation' and created_at >= now() - interval '24 hours')
from generation_events;
`
