package sqlinline

const subscriptionColumns = `id, user_id, plan, billing_interval, status, current_period_start, current_period_end, expiry_notified_at, created_at, updated_at`

const QInsertSubscription = `--sql ce12ad8b-ff1e-46f7-830b-9ccc80c29886
insert into subscriptions (id, user_id, plan, billing_interval, status, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, now(), now())
returning ` + subscriptionColumns + `;
`

const QSelectSubscription = `--sql f213b42d-bdd7-46a3-8185-6d9c582233c5
select ` + subscriptionColumns + `
from subscriptions
where id = $1::uuid
limit 1;
`

const QSelectCurrentSubscription = `--sql fa020ff3-0f9c-43d1-b2e9-38048d80e87d
select ` + subscriptionColumns + `
from subscriptions
where user_id = $1::uuid and status = 'active'
order by current_period_end desc nulls last
limit 1;
`

const QActivateSubscription = `--sql 41dc4949-e3fb-43db-b204-89d3d3f25a41
with activated as (
    update subscriptions
    set status = 'active',
        current_period_start = $2::timestamptz,
        current_period_end = $3::timestamptz,
        expiry_notified_at = null,
        updated_at = now()
    where id = $1::uuid and status = 'pending'
    returning user_id, plan
)
update users
set plan = (select plan from activated), updated_at = now()
where id = (select user_id from activated);
`

const QCancelOtherSubscriptions = `--sql 498ba877-6149-4363-932b-5449e7a38c3b
update subscriptions
set status = 'canceled', updated_at = now()
where user_id = $1::uuid and id <> $2::uuid and status in ('active', 'pending');
`

const QListExpiringSubscriptions = `--sql 2482f983-e5e4-4338-bb52-d1d164364d92
select ` + subscriptionColumns + `
from subscriptions
where status = 'active'
  and expiry_notified_at is null
  and current_period_end > now()
  and current_period_end <= $1::timestamptz
order by current_period_end asc
limit $2::int;
`

const QListExpiredSubscriptions = `--sql 37ae52f0-0481-4d43-9774-b1b11c85fb14
select ` + subscriptionColumns + `
from subscriptions
where status = 'active' and current_period_end <= $1::timestamptz
order by current_period_end asc
limit $2::int;
`

const QExpireSubscription = `--sql 7cce07ce-90d5-4934-9860-d239c8a3db1a
with expired as (
    update subscriptions
    set status = 'expired', updated_at = now()
    where id = $1::uuid and status = 'active'
    returning user_id
)
update users
set plan = 'free', updated_at = now()
where id = (select user_id from expired)
  and not exists (
      select 1 from subscriptions s
      where s.user_id = users.id and s.status = 'active' and s.id <> $1::uuid
  );
`

const QMarkSubscriptionExpiryNotified = `--sql 4f372837-7098-4992-9ae9-ddf84eb70ead
update subscriptions
set expiry_notified_at = $2::timestamptz, updated_at = now()
where id = $1::uuid;
`
